package technique

import "image"

// Technique is a single augmentation step applied to one image at a time.
// Implementations are immutable once constructed and safe for concurrent use.
type Technique interface {
	// Name returns the registry name of the technique
	Name() string

	// Apply returns a new augmented image; the input is never modified
	Apply(img image.Image) (image.Image, error)
}

// NonAltering is implemented by techniques that only change pixel values.
// Annotations attached to the image (boxes, masks, keypoints) stay valid
// without any geometric adjustment.
type NonAltering interface {
	Technique
	NonAltering()
}

// AltersGeometry reports whether annotations must be transformed alongside
// images produced by t.
func AltersGeometry(t Technique) bool {
	_, ok := t.(NonAltering)
	return !ok
}
