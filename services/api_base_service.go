package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/models"
)

var defaultHeaders = map[string]string{
	"Content-Type":     "application/json",
	"Accept":           "application/json",
	"X-Requested-With": "Fetch",
}

// Headers that describe the transport rather than the created resource.
var hiddenHeaders = map[string]bool{
	"cache-control":  true,
	"content-type":   true,
	"content-length": true,
	"connection":     true,
	"date":           true,
	"server":         true,
	"vary":           true,
}

type RequestAuthorizer interface {
	AuthorizeRequest(req *http.Request)
}

type ApiServiceInterface interface {
	Get(ctx context.Context, path string, useCache bool) (models.Response, error)
	Post(ctx context.Context, path string, body interface{}) (models.Response, error)
	Put(ctx context.Context, path string, body interface{}) (models.Response, error)
	Delete(ctx context.Context, path string) (models.Response, error)
}

// ApiBaseService talks JSON to the Warden API.
type ApiBaseService struct {
	baseURL *url.URL
	client  *http.Client
	auth    RequestAuthorizer
	cache   *ResponseCache
}

func NewApiBaseService(baseURL string, auth RequestAuthorizer, cacheTTL, timeout time.Duration) (*ApiBaseService, error) {
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}

	return &ApiBaseService{
		baseURL: parsed,
		client:  &http.Client{Timeout: timeout},
		auth:    auth,
		cache:   NewResponseCache(cacheTTL),
	}, nil
}

func (s *ApiBaseService) Get(ctx context.Context, path string, useCache bool) (models.Response, error) {
	if useCache {
		if cached, ok := s.cache.Get(path); ok {
			return cached, nil
		}
	}

	response, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if useCache {
		s.cache.Set(path, response)
	}
	return response, nil
}

// Post sends body as JSON. A 201 without a body must expose at least one
// resource header, otherwise ErrNoResourceHeaders is returned.
func (s *ApiBaseService) Post(ctx context.Context, path string, body interface{}) (models.Response, error) {
	defer s.cache.Clear()
	return s.do(ctx, http.MethodPost, path, body)
}

func (s *ApiBaseService) Put(ctx context.Context, path string, body interface{}) (models.Response, error) {
	defer s.cache.Clear()
	return s.do(ctx, http.MethodPut, path, body)
}

func (s *ApiBaseService) Delete(ctx context.Context, path string) (models.Response, error) {
	defer s.cache.Clear()
	return s.do(ctx, http.MethodDelete, path, nil)
}

// Command returns a CommandFunc posting payload to the named command.
func (s *ApiBaseService) Command(name string, payload interface{}) CommandFunc {
	return func(ctx context.Context) (models.Response, error) {
		return s.Post(ctx, "commands/"+name, payload)
	}
}

func (s *ApiBaseService) resolve(path string) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	return s.baseURL.ResolveReference(ref).String(), nil
}

func (s *ApiBaseService) do(ctx context.Context, method, path string, body interface{}) (models.Response, error) {
	target, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	for key, value := range defaultHeaders {
		req.Header.Set(key, value)
	}
	if s.auth != nil {
		s.auth.AuthorizeRequest(req)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response of %s %s: %w", method, target, err)
	}

	log.Debug().Str("method", method).Str("url", target).Int("status", resp.StatusCode).Msg("api request")
	return parseResponse(resp, data)
}

func parseResponse(resp *http.Response, data []byte) (models.Response, error) {
	empty := len(bytes.TrimSpace(data)) == 0

	switch {
	case resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusUnauthorized:
		return models.Response{}, nil
	case (resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusAccepted) && empty:
		exposed := exposedHeaders(resp.Header)
		if resp.StatusCode == http.StatusCreated && len(exposed) == 0 {
			return nil, ErrNoResourceHeaders
		}
		return exposed, nil
	case resp.StatusCode == http.StatusBadRequest:
		// Command rejections carry their errors in the body.
		var body models.Response
		if err := json.Unmarshal(data, &body); err == nil {
			return body, nil
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if empty {
		return models.Response{}, nil
	}
	var body models.Response
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return body, nil
}

func exposedHeaders(header http.Header) models.Response {
	exposed := models.Response{}
	for key, values := range header {
		name := strings.ToLower(key)
		if hiddenHeaders[name] || strings.HasPrefix(name, "access-control-") || len(values) == 0 {
			continue
		}
		exposed[name] = values[0]
	}
	return exposed
}
