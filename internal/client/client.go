// Package client is a typed HTTP client for the repair API, shared by the
// dashboard and submission logic and by repairctl.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/autopec/garage/internal/model"
)

// Multipart field names understood by POST /api/repairs/submit.
const (
	repairDataField = "repairData"
	multimediaField = "multimedia"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Details    string `json:"details"`
	Code       string `json:"code"`
}

// Error returns the most specific message the server gave.
func (e *APIError) Error() string {
	if e.Details != "" {
		return e.Details
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type RepairFields struct {
	RegistrationNumber string `json:"registrationNumber"`
	ProblemDescription string `json:"problemDescription"`
	CustomerName       string `json:"customerName"`
	PhoneNumber        string `json:"phoneNumber"`
	CarModel           string `json:"carModel"`
}

// Upload is one file part of a submission.
type Upload struct {
	Filename  string
	MediaType string
	Body      io.Reader
}

type StatusUpdate struct {
	Status        model.Status `json:"status"`
	MechanicNotes string       `json:"mechanicNotes"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client. A trailing "/" or "/api" on baseURL is stripped so
// paths are never doubled.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	base = strings.TrimSuffix(base, "/api")

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ListRepairs(ctx context.Context) ([]model.RepairRequest, error) {
	var repairs []model.RepairRequest
	err := c.do(ctx, http.MethodGet, "/api/repairs", nil, "", &repairs)
	if err != nil {
		return nil, err
	}
	return repairs, nil
}

func (c *Client) ListByStatus(ctx context.Context, status model.Status) ([]model.RepairRequest, error) {
	var repairs []model.RepairRequest
	err := c.do(ctx, http.MethodGet, "/api/repairs/status/"+url.PathEscape(string(status)), nil, "", &repairs)
	if err != nil {
		return nil, err
	}
	return repairs, nil
}

func (c *Client) Track(ctx context.Context, registration string) (*model.RepairRequest, error) {
	var repair model.RepairRequest
	err := c.do(ctx, http.MethodGet, "/api/repairs/track/"+url.PathEscape(registration), nil, "", &repair)
	if err != nil {
		return nil, err
	}
	return &repair, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, update StatusUpdate) (*model.RepairRequest, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, err
	}

	var repair model.RepairRequest
	err = c.do(ctx, http.MethodPut, "/api/repairs/"+url.PathEscape(id)+"/status",
		strings.NewReader(string(body)), "application/json", &repair)
	if err != nil {
		return nil, err
	}
	return &repair, nil
}

func (c *Client) DeleteRepair(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/repairs/"+url.PathEscape(id), nil, "", nil)
}

// Submit streams a multipart submission: the fields as a JSON blob followed by
// each upload in order.
func (c *Client) Submit(ctx context.Context, fields RepairFields, uploads []Upload) (*model.RepairRequest, error) {
	blob, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeSubmission(mw, blob, uploads)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	var repair model.RepairRequest
	err = c.do(ctx, http.MethodPost, "/api/repairs/submit", pr, mw.FormDataContentType(), &repair)
	// Unblock the writer if the request ended before the body was consumed.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return nil, err
	}
	return &repair, nil
}

func writeSubmission(mw *multipart.Writer, blob []byte, uploads []Upload) error {
	err := mw.WriteField(repairDataField, string(blob))
	if err != nil {
		return err
	}

	for _, u := range uploads {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, multimediaField, u.Filename))
		mediaType := u.MediaType
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		h.Set("Content-Type", mediaType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, u.Body)
		if err != nil {
			return fmt.Errorf("failed to stream %s: %w", u.Filename, err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
