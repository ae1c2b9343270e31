package container

import (
	"fmt"
	"net/http"

	"go-image-augmentor/internal/config"
	"go-image-augmentor/internal/factory"
	"go-image-augmentor/internal/logger"
	"go-image-augmentor/internal/observer"
	"go-image-augmentor/internal/repository"
	"go-image-augmentor/internal/service"
	"go-image-augmentor/internal/storage"
	"go-image-augmentor/internal/transport"
	"go-image-augmentor/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config              *config.Config
	factories           *factory.ComponentFactory
	imageRepository     repository.ImageRepository
	publisher           *observer.EventPublisher
	metrics             *observer.MetricsObserver
	augmentationService service.AugmentationService
	handler             http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	httpOptions := storage.DefaultHTTPFetcherOptions()
	httpOptions.Timeout = cfg.ImageFetchTimeout
	storageFactory := factory.NewStorageFactory(httpOptions, cfg.AzureStorageAccount, cfg.AzureStorageKey)
	factories := factory.NewComponentFactory(storageFactory)

	httpFetcher, err := storageFactory.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to create http storage: %w", err)
	}

	// A nil interface, never a typed nil, when Azure is off
	var blobs repository.BlobSource
	if cfg.AzureEnabled() {
		fetcher, err := storageFactory.CreateStorage(factory.AzureStorage)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure storage: %w", err)
		}
		azure, ok := fetcher.(repository.BlobSource)
		if !ok {
			return nil, fmt.Errorf("azure storage cannot route blob URLs")
		}
		blobs = azure
	}

	imageRepository := repository.NewImageRepository(httpFetcher, blobs, validation.NewURLValidator())

	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(metrics)

	augmentationService := service.NewAugmentationService(imageRepository, factories.TechniqueFactory, publisher)
	handler := transport.NewHandler(augmentationService, factories.TechniqueFactory, metrics.Handler(), cfg)

	return &Container{
		config:              cfg,
		factories:           factories,
		imageRepository:     imageRepository,
		publisher:           publisher,
		metrics:             metrics,
		augmentationService: augmentationService,
		handler:             handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// AugmentationService returns the service behind the HTTP handler
func (c *Container) AugmentationService() service.AugmentationService {
	return c.augmentationService
}

// Close waits for pending event notifications
func (c *Container) Close() {
	c.publisher.Flush()
}
