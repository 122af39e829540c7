// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/kb-migrate/internal/httputil"
	"github.com/pdiddy/kb-migrate/pkg/types"
)

// maxResponseBody caps how much of a success response is read.
const maxResponseBody = 1 << 20

// PassageRequest is the body of a passage upload.
type PassageRequest struct {
	Passages    []string       `json:"passages"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Metadata    types.Metadata `json:"metadata"`
}

// PassageResponse is a successful upload. KnowledgeID is taken from the
// response's data.id (or top-level id) when present.
type PassageResponse struct {
	KnowledgeID string
	Body        []byte
}

// UploadError is a failed upload: a non-201 status, a timeout, or a
// transport error. StatusCode is zero when no response was received.
type UploadError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		if e.Message == "" {
			return fmt.Sprintf("API error %d", e.StatusCode)
		}
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

func (e *UploadError) Unwrap() error { return e.Err }

// Uploader submits one record to the knowledge base.
type Uploader interface {
	Upload(ctx context.Context, rec types.TransformedRecord) (PassageResponse, error)
}

// Client uploads passages to the knowledge-base passage endpoint.
type Client struct {
	http      *http.Client
	baseURL   string
	token     string
	kbID      string
	userAgent string
}

// NewClient returns a Client for cfg. A nil httpClient gets one with
// cfg.Timeout.
func NewClient(cfg types.ImportConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = httputil.NewClient(cfg.Timeout)
	}
	return &Client{
		http:      httpClient,
		baseURL:   strings.TrimRight(cfg.APIURL, "/"),
		token:     cfg.Token,
		kbID:      cfg.KnowledgeBaseID,
		userAgent: cfg.UserAgent,
	}
}

// PassageURL returns the endpoint passages are posted to.
func (c *Client) PassageURL() string {
	return fmt.Sprintf("%s/api/v1/knowledge-bases/%s/knowledge/passage", c.baseURL, url.PathEscape(c.kbID))
}

// Upload posts rec as a single-passage request. HTTP 201 is the only
// success status. Failures are returned as *UploadError; a 201 whose body
// is not JSON is returned as a plain error.
func (c *Client) Upload(ctx context.Context, rec types.TransformedRecord) (PassageResponse, error) {
	payload := PassageRequest{
		Passages:    []string{rec.Passage},
		Title:       rec.Title,
		Description: rec.Description,
		Metadata:    rec.Metadata,
	}

	req, err := httputil.NewJSONRequest(ctx, http.MethodPost, c.PassageURL(), payload, c.token, c.userAgent)
	if err != nil {
		return PassageResponse{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return PassageResponse{}, &UploadError{Message: "request timed out", Err: err}
		}
		return PassageResponse{}, &UploadError{Message: fmt.Sprintf("request failed: %v", err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return PassageResponse{}, &UploadError{
			StatusCode: resp.StatusCode,
			Message:    httputil.ErrorBody(resp),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return PassageResponse{}, fmt.Errorf("reading response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return PassageResponse{}, fmt.Errorf("decoding response: body is not valid JSON")
	}

	out := PassageResponse{Body: body}
	if id := gjson.GetBytes(body, "data.id"); id.Exists() {
		out.KnowledgeID = id.String()
	} else if id := gjson.GetBytes(body, "id"); id.Exists() {
		out.KnowledgeID = id.String()
	}
	return out, nil
}
