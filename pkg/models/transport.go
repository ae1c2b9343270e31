package models

// AugmentRequest asks for one source image to be augmented.
// Parameters are technique-specific; for gaussian_blur only "kernel" is read.
type AugmentRequest struct {
	URL        string                 `json:"url" binding:"required,url"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Format     string                 `json:"format,omitempty" binding:"omitempty,oneof=png jpeg jpg bmp tiff gif"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// TechniqueInfo describes a registered augmentation technique
type TechniqueInfo struct {
	Name           string `json:"name"`
	AltersGeometry bool   `json:"alters_geometry"`
	Defaults       string `json:"defaults,omitempty"`
}

// TechniquesResponse lists every registered technique
type TechniquesResponse struct {
	Techniques []TechniqueInfo `json:"techniques"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
