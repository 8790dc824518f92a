package hrapi

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
)

// Blob is an opaque binary payload such as a generated report.
type Blob struct {
	ContentType string
	// Filename is taken from Content-Disposition when the backend sends one.
	Filename string
	Data     []byte
}

// GetBlob fetches raw bytes with the same auth and error contract as Get.
func (c *Client) GetBlob(ctx context.Context, path string, query url.Values) (*Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path, query), nil)
	if err != nil {
		return nil, fmt.Errorf("hrapi: build GET %s: %w", path, err)
	}

	_, header, data, err := c.do(req, path)
	if err != nil {
		return nil, err
	}

	blob := &Blob{
		ContentType: header.Get("Content-Type"),
		Data:        data,
	}
	if blob.ContentType == "" {
		blob.ContentType = "application/octet-stream"
	}
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, perr := mime.ParseMediaType(cd); perr == nil {
			blob.Filename = params["filename"]
		}
	}
	return blob, nil
}
