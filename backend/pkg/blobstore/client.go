// Package blobstore talks to the pinning gateway that holds the encrypted
// facial descriptor payloads. The gateway is an opaque HTTP store keyed by
// content identifier: PUT uploads a blob under its own digest, GET retrieves
// it.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a thin HTTP client for the pinning gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Put uploads data and returns its content identifier (the hex SHA-256 of
// the payload). Re-uploading identical content is a no-op on the gateway
// side.
func (c *Client) Put(ctx context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	cid := hex.EncodeToString(sum[:])

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/blobs/"+cid, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("blob upload failed with status %d", resp.StatusCode)
	}
	return cid, nil
}

// Get retrieves the blob stored under cid.
func (c *Client) Get(ctx context.Context, cid string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/blobs/"+cid, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("blob %s not found", cid)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blob fetch failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
