package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureBlobHostSuffix identifies blob endpoints served by Azure Storage
const AzureBlobHostSuffix = ".blob.core.windows.net"

// AzureStorage fetches source images from Azure Blob Storage
type AzureStorage struct {
	accountName string
	client      *azblob.Client
}

// NewAzureStorage creates a blob fetcher authenticated with a shared key
func NewAzureStorage(accountName string, accountKey string) (*AzureStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s/", accountName, AzureBlobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return &AzureStorage{accountName: accountName, client: client}, nil
}

// Handles reports whether blobURL points at this storage account
func (s *AzureStorage) Handles(blobURL string) bool {
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), s.accountName+AzureBlobHostSuffix)
}

// FetchImage downloads and decodes the blob addressed by blobURL
func (s *AzureStorage) FetchImage(ctx context.Context, blobURL string) (image.Image, error) {
	containerName, blobName, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := downloadResponse.Body
	defer body.Close()

	return DecodeImage(body)
}

// ParseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob>
// into its container and blob names
func ParseBlobURL(blobURL string) (containerName, blobName string, err error) {
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	path := strings.TrimPrefix(parsed.Path, "/")
	containerName, blobName, found := strings.Cut(path, "/")
	if !found || containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("invalid blob URL %q: expected /<container>/<blob>", blobURL)
	}
	return containerName, blobName, nil
}
