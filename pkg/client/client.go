// Package client is a typed HTTP client for the greenleaf API. The bearer
// token is held explicitly on the Session rather than in ambient state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"greenleaf/pkg/domain"
)

var (
	// ErrInvalidID mirrors a 400 answer on an id route.
	ErrInvalidID = errors.New("client: invalid sample id")
	// ErrNotFound mirrors a 404 answer.
	ErrNotFound = errors.New("client: not found")
	// ErrUnauthorized mirrors a 401 answer.
	ErrUnauthorized = errors.New("client: unauthorized")
)

// invalidIDMessage is the server's 400 body for malformed ids.
const invalidIDMessage = "ID inválido."

// APIError is any other non-2xx answer.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("client: status %d: %s", e.StatusCode, e.Message)
}

// Session carries the API location and credentials for a caller.
type Session struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New returns a Session with a default HTTP client.
func New(baseURL, token string) *Session {
	return &Session{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// List returns every sample.
func (s *Session) List(ctx context.Context) ([]domain.Sample, error) {
	var out struct {
		Samples []domain.Sample `json:"samples"`
	}
	if err := s.do(ctx, http.MethodGet, "/leafsamples", nil, &out); err != nil {
		return nil, err
	}
	return out.Samples, nil
}

// Get returns one sample.
func (s *Session) Get(ctx context.Context, id string) (domain.Sample, error) {
	var out struct {
		Sample domain.Sample `json:"sample"`
	}
	err := s.do(ctx, http.MethodGet, "/leafsamples/"+url.PathEscape(id), nil, &out)
	return out.Sample, err
}

// Create stores sample and returns the new id taken from the Location header.
func (s *Session) Create(ctx context.Context, sample domain.Sample) (string, error) {
	resp, err := s.send(ctx, http.MethodPost, "/leafsamples", sample)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	loc := resp.Header.Get("Location")
	return loc[strings.LastIndex(loc, "/")+1:], nil
}

// Replace overwrites the sample. A nil result means the id was unknown.
func (s *Session) Replace(ctx context.Context, id string, sample domain.Sample) (*domain.Sample, error) {
	var out struct {
		Sample *domain.Sample `json:"sample"`
	}
	err := s.do(ctx, http.MethodPut, "/leafsamples/"+url.PathEscape(id), sample, &out)
	return out.Sample, err
}

// Patch merges the set fields of patch into the sample.
func (s *Session) Patch(ctx context.Context, id string, patch domain.SamplePatch) (domain.Sample, error) {
	var out struct {
		Sample domain.Sample `json:"sample"`
	}
	err := s.do(ctx, http.MethodPatch, "/leafsamples/"+url.PathEscape(id), patch, &out)
	return out.Sample, err
}

// Delete removes the sample. Unknown ids succeed.
func (s *Session) Delete(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/leafsamples/"+url.PathEscape(id), nil, nil)
}

// Dashboard returns the raw dashboard payload for period.
func (s *Session) Dashboard(ctx context.Context, period string) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.do(ctx, http.MethodGet, "/leafsamples/stats/dashboard?period="+url.QueryEscape(period), nil, &out)
	return out, err
}

// Export downloads a rendered report into w and returns the server's filename.
func (s *Session) Export(ctx context.Context, period, format string, w io.Writer) (string, error) {
	q := url.Values{}
	q.Set("period", period)
	q.Set("format", format)
	resp, err := s.send(ctx, http.MethodGet, "/leafsamples/export?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("client: read export: %w", err)
	}
	return attachmentName(resp.Header.Get("Content-Disposition")), nil
}

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := s.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (s *Session) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	httpClient := s.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
	switch resp.StatusCode {
	case http.StatusBadRequest:
		if payload.Error == invalidIDMessage {
			return ErrInvalidID
		}
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
}

func attachmentName(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
