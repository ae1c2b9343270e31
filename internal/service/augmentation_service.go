package service

import (
	"context"
	stderrors "errors"
	"image"
	"time"

	"go-image-augmentor/internal/analyzer"
	apperrors "go-image-augmentor/internal/errors"
	"go-image-augmentor/internal/factory"
	"go-image-augmentor/internal/observer"
	"go-image-augmentor/internal/repository"
	"go-image-augmentor/internal/technique"
)

// AugmentationResult is the outcome of augmenting one source image
type AugmentationResult struct {
	SourceURL      string
	Image          image.Image
	Technique      technique.Technique
	Smoothing      analyzer.SmoothingReport
	ProcessingTime time.Duration
}

// AugmentationService applies augmentation techniques to remote images
type AugmentationService interface {
	// Augment fetches imageURL and applies the named technique built from params
	Augment(ctx context.Context, techniqueName, imageURL string, params map[string]interface{}) (*AugmentationResult, error)

	// BlurURL is Augment with the Gaussian blur technique
	BlurURL(ctx context.Context, imageURL string, params map[string]interface{}) (*AugmentationResult, error)

	ValidateImageURL(imageURL string) error
}

type augmentationService struct {
	imageRepo  repository.ImageRepository
	techniques factory.TechniqueFactory
	publisher  observer.Subject
}

// NewAugmentationService creates a new augmentation service. publisher may be nil.
func NewAugmentationService(
	imageRepository repository.ImageRepository,
	techniques factory.TechniqueFactory,
	publisher observer.Subject,
) AugmentationService {
	return &augmentationService{
		imageRepo:  imageRepository,
		techniques: techniques,
		publisher:  publisher,
	}
}

func (s *augmentationService) BlurURL(ctx context.Context, imageURL string, params map[string]interface{}) (*AugmentationResult, error) {
	return s.Augment(ctx, technique.GaussianBlurName, imageURL, params)
}

func (s *augmentationService) Augment(ctx context.Context, techniqueName, imageURL string, params map[string]interface{}) (*AugmentationResult, error) {
	start := time.Now()

	// Build first so bad parameters never cost a download
	t, err := s.techniques.CreateTechnique(techniqueName, params)
	if err != nil {
		s.fail(ctx, techniqueName, imageURL, start, err)
		return nil, err
	}

	img, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		err = classifyFetchError(err)
		s.publish(ctx, observer.AugmentationEvent{
			EventType:    observer.ImageFetchFailed,
			Source:       imageURL,
			Technique:    techniqueName,
			ErrorMessage: err.Error(),
		})
		s.fail(ctx, techniqueName, imageURL, start, err)
		return nil, err
	}
	s.publish(ctx, observer.AugmentationEvent{
		EventType: observer.ImageFetched,
		Source:    imageURL,
		Technique: techniqueName,
		Success:   true,
	})

	s.publish(ctx, observer.AugmentationEvent{
		EventType: observer.AugmentationStarted,
		Source:    imageURL,
		Technique: techniqueName,
	})

	out, err := t.Apply(img)
	if err != nil {
		s.fail(ctx, techniqueName, imageURL, start, err)
		return nil, err
	}

	result := &AugmentationResult{
		SourceURL:      imageURL,
		Image:          out,
		Technique:      t,
		Smoothing:      analyzer.CompareSharpness(img, out),
		ProcessingTime: time.Since(start),
	}

	s.publish(ctx, observer.AugmentationEvent{
		EventType:      observer.AugmentationCompleted,
		Source:         imageURL,
		Technique:      techniqueName,
		ProcessingTime: result.ProcessingTime,
		Success:        true,
		Metadata: map[string]interface{}{
			"sharpness_before": result.Smoothing.SharpnessBefore,
			"sharpness_after":  result.Smoothing.SharpnessAfter,
		},
	})

	return result, nil
}

func (s *augmentationService) ValidateImageURL(imageURL string) error {
	return s.imageRepo.ValidateImageURL(imageURL)
}

func (s *augmentationService) fail(ctx context.Context, techniqueName, imageURL string, start time.Time, err error) {
	s.publish(ctx, observer.AugmentationEvent{
		EventType:      observer.AugmentationFailed,
		Source:         imageURL,
		Technique:      techniqueName,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}

func (s *augmentationService) publish(ctx context.Context, event observer.AugmentationEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = time.Now()
	s.publisher.NotifyObservers(ctx, event)
}

// classifyFetchError keeps typed errors and maps the rest onto timeout or network errors
func classifyFetchError(err error) error {
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("image fetch timeout", err)
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}
