// Package client is a Go client for the bucket store HTTP API.
package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/dmitrijs2005/bucketstore/internal/netx"
	"github.com/google/uuid"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	// ErrNotFound is returned by Download when the bucket holds no such file.
	ErrNotFound = errors.New("file not found")
)

// APIError is a non-2xx answer carrying the server's errorInfo text.
type APIError struct {
	Status int
	Info   string
}

func (e *APIError) Error() string {
	if e.Info == "" {
		return fmt.Sprintf("server answered %d", e.Status)
	}
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Info)
}

// Credentials is a bucket key pair as issued by POST /key.
type Credentials struct {
	KeyID  uuid.UUID `json:"keyId"`
	Secret string    `json:"key"`
}

func (c Credentials) header() string {
	raw := c.KeyID.String() + ":" + c.Secret
	return common.BasicScheme + " " + base64.StdEncoding.EncodeToString([]byte(raw))
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL ("http://127.0.0.1:3001").
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// IssueKey creates a new bucket and returns its key. The secret is shown
// only once.
func (c *Client) IssueKey(ctx context.Context) (Credentials, error) {
	var out Credentials
	err := c.doJSON(ctx, http.MethodPost, "/key", nil, nil, "", &out)
	return out, err
}

// VerifyKey returns the bucket the credentials belong to.
func (c *Client) VerifyKey(ctx context.Context, creds Credentials) (uuid.UUID, error) {
	var out struct {
		BucketID uuid.UUID `json:"bucketId"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/key/verify", &creds, nil, "", &out)
	return out.BucketID, err
}

// IssueUploadKey returns a reusable upload token for the bucket.
func (c *Client) IssueUploadKey(ctx context.Context, creds Credentials) (uuid.UUID, error) {
	var out struct {
		UploadID uuid.UUID `json:"uploadId"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/upload/key", &creds, nil, "", &out)
	return out.UploadID, err
}

// Upload stores files in the credentials' bucket and returns their ids in
// order.
func (c *Client) Upload(ctx context.Context, creds Credentials, files []netx.FilePart) ([]uuid.UUID, error) {
	return c.upload(ctx, "/upload", &creds, files)
}

// UploadWithToken stores files using an upload token instead of a key.
func (c *Client) UploadWithToken(ctx context.Context, token uuid.UUID, files []netx.FilePart) ([]uuid.UUID, error) {
	return c.upload(ctx, "/upload/"+token.String(), nil, files)
}

func (c *Client) upload(ctx context.Context, path string, creds *Credentials, files []netx.FilePart) ([]uuid.UUID, error) {
	body, contentType := netx.MultipartBody(files)
	defer body.Close()

	var ids []uuid.UUID
	if err := c.doJSON(ctx, http.MethodPost, path, creds, body, contentType, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Download copies the file's bytes to w and returns the announced content
// type, which is empty for anything but png and jpg.
func (c *Client) Download(ctx context.Context, creds Credentials, fileID uuid.UUID, w io.Writer) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/download/"+fileID.String(), &creds, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return "", ErrNotFound
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read download: %w", err)
	}
	return resp.Header.Get("Content-Type"), nil
}

// Delete removes the file from the credentials' bucket.
func (c *Client) Delete(ctx context.Context, creds Credentials, fileID uuid.UUID) error {
	resp, err := c.do(ctx, http.MethodGet, "/delete/"+fileID.String(), &creds, nil, "")
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) doJSON(ctx context.Context, method, path string, creds *Credentials, body io.Reader, contentType string, out any) error {
	resp, err := c.do(ctx, method, path, creds, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// do sends the request and turns any status >= 400 into an *APIError.
func (c *Client) do(ctx context.Context, method, path string, creds *Credentials, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if creds != nil {
		req.Header.Set(common.AuthorizationHeaderName, creds.header())
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode}
	var info struct {
		ErrorInfo string `json:"errorInfo"`
	}
	if json.NewDecoder(resp.Body).Decode(&info) == nil {
		apiErr.Info = info.ErrorInfo
	}
	return nil, apiErr
}
