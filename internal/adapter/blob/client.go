// Package blob writes and reads the pipeline's bronze artifacts in Azure
// Blob Storage. Uploads overwrite in place; partition paths are the only
// addressing scheme.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// ErrNotFound is returned when a requested blob does not exist.
var ErrNotFound = errors.New("blob: not found")

// Client wraps an Azure Blob service client scoped to one container.
type Client struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// NewClient builds a shared-key authenticated client for the given storage
// account and container.
func NewClient(account, container, key string, logger *slog.Logger) (*Client, error) {
	cred, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, fmt.Errorf("blob credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("blob client: %w", err)
	}

	return &Client{client: client, container: container, logger: logger}, nil
}

// Upload writes data under path, replacing any existing blob.
func (c *Client) Upload(ctx context.Context, path string, data []byte) error {
	if _, err := c.client.UploadBuffer(ctx, c.container, path, data, nil); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	c.logger.Debug("blob uploaded", "path", path, "bytes", len(data))
	return nil
}

// Download reads the blob at path, returning ErrNotFound when it does not
// exist.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.client.DownloadStream(ctx, c.container, path, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("download %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
