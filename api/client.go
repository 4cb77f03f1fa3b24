package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/arborlens/treehealth/models"
)

// Client issues requests against the tree-health analysis backend. It does
// no retries beyond what is explicitly coded in the poller; every failure is
// surfaced to the caller as a tagged error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	rewriter   *StorageURLRewriter
}

// NewClient creates a backend client. internalStorageURL/publicStorageURL
// configure rewriting of object-store URLs that reference an internal
// hostname; pass an empty public URL to disable rewriting.
func NewClient(baseURL string, timeout time.Duration, internalStorageURL, publicStorageURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		rewriter:   NewStorageURLRewriter(internalStorageURL, publicStorageURL),
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Rewriter exposes the storage URL rewriter so display layers can map
// fragment URLs to their public form.
func (c *Client) Rewriter() *StorageURLRewriter {
	return c.rewriter
}

// quoteEscaper matches the escaping multipart.CreateFormFile applies to
// field names and filenames.
var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// EncodeUploadMetadata serializes the optional upload metadata map exactly
// as the backend's multipart form expects it: a JSON object sent as a plain
// text part. Keys observed by the backend: taken_at (ISO-8601 UTC),
// location ("lat,lon"), author.
func EncodeUploadMetadata(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode upload metadata: %w", err)
	}
	return string(data), nil
}

// Upload sends one photograph to POST /api/v1/images/upload as multipart
// form data and returns the created image record.
func (c *Client) Upload(ctx context.Context, filename, contentType string, file io.Reader, metadata map[string]string) (*models.ImageRecord, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	if contentType == "" {
		contentType = "image/jpeg"
	}
	partHeader.Set("Content-Type", contentType)
	part, err := mw.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}

	metaJSON, err := EncodeUploadMetadata(metadata)
	if err != nil {
		return nil, err
	}
	if metaJSON != "" {
		if err := mw.WriteField("metadata", metaJSON); err != nil {
			return nil, fmt.Errorf("failed to write metadata part: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/images/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var record models.ImageRecord
	if err := c.do(req, &record); err != nil {
		return nil, err
	}
	log.Printf("api: uploaded %s, assigned image id %d", filename, record.ID)
	return &record, nil
}

// ListImages fetches an ordered page of image records from
// GET /api/v1/images/.
func (c *Client) ListImages(ctx context.Context, skip, limit int) ([]models.ImageRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v1/images/?skip=%d&limit=%d", c.baseURL, skip, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build list request: %w", err)
	}

	var records []models.ImageRecord
	if err := c.do(req, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetImage fetches one image record, including detected objects, from
// GET /api/v1/images/{id}.
func (c *Client) GetImage(ctx context.Context, id int) (*models.ImageRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v1/images/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build detail request: %w", err)
	}

	var record models.ImageRecord
	if err := c.do(req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetDownloadURL asks the backend for a time-limited download URL for the
// image blob. The returned URL is rewritten to the public storage endpoint
// when one is configured.
func (c *Client) GetDownloadURL(ctx context.Context, id, expiresIn int) (*models.DownloadInfo, error) {
	endpoint := fmt.Sprintf("%s/api/v1/images/%d/download?expires_in=%s", c.baseURL, id, url.QueryEscape(strconv.Itoa(expiresIn)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download-url request: %w", err)
	}

	var info models.DownloadInfo
	if err := c.do(req, &info); err != nil {
		return nil, err
	}
	info.DownloadURL = c.rewriter.Rewrite(info.DownloadURL)
	return &info, nil
}

// DeleteImage removes an image server-side via DELETE /api/v1/images/{id}.
func (c *Client) DeleteImage(ctx context.Context, id int) error {
	endpoint := fmt.Sprintf("%s/api/v1/images/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	return c.do(req, nil)
}

// Reprocess asks the backend to run the analysis pipeline again for an
// image via POST /api/v1/images/{id}/reprocess.
func (c *Client) Reprocess(ctx context.Context, id int) error {
	endpoint := fmt.Sprintf("%s/api/v1/images/%d/reprocess", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build reprocess request: %w", err)
	}
	return c.do(req, nil)
}

// FetchBytes downloads raw bytes from an absolute URL (signed download URLs,
// fragment URLs). The URL is used as given; rewrite it first if needed.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// do executes a request, maps transport and HTTP failures to the error
// taxonomy, and decodes a JSON body into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}
