package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// Uploader is the minimal store surface the write helpers need.
type Uploader interface {
	Upload(ctx context.Context, path string, data []byte) error
}

// Downloader is the minimal store surface the read helpers need.
type Downloader interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

// WriteTable serializes rows to parquet and uploads the blob whole, so a
// partition is either replaced completely or left untouched.
func WriteTable[T any](ctx context.Context, up Uploader, path string, rows []T) error {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("encode parquet %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize parquet %s: %w", path, err)
	}
	return up.Upload(ctx, path, buf.Bytes())
}

// ReadTable downloads and deserializes a parquet table. A missing blob
// surfaces as ErrNotFound from the underlying store.
func ReadTable[T any](ctx context.Context, dl Downloader, path string) ([]T, error) {
	data, err := dl.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode parquet %s: %w", path, err)
	}
	return rows, nil
}

// WriteJSON uploads a UTF-8 JSON encoding of v.
func WriteJSON(ctx context.Context, up Uploader, path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode json %s: %w", path, err)
	}
	return up.Upload(ctx, path, data)
}
