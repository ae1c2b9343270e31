package factory

import (
	"fmt"
	"sort"

	apperrors "go-image-augmentor/internal/errors"
	"go-image-augmentor/internal/storage"
	"go-image-augmentor/internal/technique"
)

// TechniqueBuilder builds a technique from a loose parameter map
type TechniqueBuilder func(params map[string]interface{}) (technique.Technique, error)

// TechniqueFactory creates augmentation techniques by name
type TechniqueFactory interface {
	CreateTechnique(name string, params map[string]interface{}) (technique.Technique, error)
	Names() []string
}

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

type techniqueFactory struct {
	builders map[string]TechniqueBuilder
}

// NewTechniqueFactory creates a factory with every built-in technique registered
func NewTechniqueFactory() TechniqueFactory {
	return &techniqueFactory{
		builders: map[string]TechniqueBuilder{
			technique.GaussianBlurName: func(params map[string]interface{}) (technique.Technique, error) {
				return technique.NewGaussianBlurFromMap(params)
			},
		},
	}
}

// CreateTechnique builds the named technique
func (f *techniqueFactory) CreateTechnique(name string, params map[string]interface{}) (technique.Technique, error) {
	build, ok := f.builders[name]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("unsupported technique: %s", name), nil)
	}
	return build(params)
}

// Names lists the registered techniques in sorted order
func (f *techniqueFactory) Names() []string {
	names := make([]string, 0, len(f.builders))
	for name := range f.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type storageFactory struct {
	httpOptions  storage.HTTPFetcherOptions
	azureAccount string
	azureKey     string
}

// NewStorageFactory creates a storage factory. Azure storage is only
// available when an account name is given.
func NewStorageFactory(httpOptions storage.HTTPFetcherOptions, azureAccount, azureKey string) StorageFactory {
	return &storageFactory{
		httpOptions:  httpOptions,
		azureAccount: azureAccount,
		azureKey:     azureKey,
	}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcherWithOptions(f.httpOptions), nil
	case AzureStorage:
		if f.azureAccount == "" {
			return nil, fmt.Errorf("azure storage is not configured")
		}
		return storage.NewAzureStorage(f.azureAccount, f.azureKey)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	TechniqueFactory TechniqueFactory
	StorageFactory   StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(storageFactory StorageFactory) *ComponentFactory {
	return &ComponentFactory{
		TechniqueFactory: NewTechniqueFactory(),
		StorageFactory:   storageFactory,
	}
}
