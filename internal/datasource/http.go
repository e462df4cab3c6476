package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/chainview/pkg/explore"
	"github.com/vanderheijden86/chainview/pkg/model"
	"github.com/vanderheijden86/chainview/pkg/version"
)

// DefaultChatPath is the conversation endpoint used when none is configured.
const DefaultChatPath = "/api/chat"

// HTTPSource reads the graph, detail, risk and forecast resources from the
// backend's JSON API and posts conversation turns to it.
type HTTPSource struct {
	baseURL    string
	token      string
	chatPath   string
	httpClient *http.Client
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithChatPath overrides the conversation endpoint path.
func WithChatPath(path string) HTTPOption {
	return func(s *HTTPSource) {
		if path != "" {
			s.chatPath = "/" + strings.TrimLeft(path, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// NewHTTPSource creates a source targeting the given base URL
// (e.g. "http://localhost:5000"). When token is non-empty, an Authorization
// header is set on every request. Request deadlines come from the caller's
// context.
func NewHTTPSource(baseURL, token string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		chatPath:   DefaultChatPath,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op for the HTTP source.
func (s *HTTPSource) Close() error { return nil }

func (s *HTTPSource) String() string { return s.baseURL }

func (s *HTTPSource) FetchAllRelationships(ctx context.Context) ([]model.Relationship, error) {
	var rows []model.Relationship
	if err := s.doJSON(ctx, http.MethodGet, "/api/graph/all", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *HTTPSource) FetchPartDetail(ctx context.Context, partID string) (model.Relationship, error) {
	var row model.Relationship
	if err := s.doJSON(ctx, http.MethodGet, "/api/graph/"+url.PathEscape(partID), nil, &row); err != nil {
		return model.Relationship{}, err
	}
	return row, nil
}

func (s *HTTPSource) FetchRisk(ctx context.Context, partID string) (model.RiskSummary, error) {
	var risk model.RiskSummary
	if err := s.doJSON(ctx, http.MethodGet, "/api/risk/"+url.PathEscape(partID), nil, &risk); err != nil {
		return model.RiskSummary{}, err
	}
	return risk, nil
}

func (s *HTTPSource) FetchForecast(ctx context.Context, partID string) (model.Forecast, error) {
	var fc model.Forecast
	if err := s.doJSON(ctx, http.MethodGet, "/api/forecast/"+url.PathEscape(partID), nil, &fc); err != nil {
		return model.Forecast{}, err
	}
	return fc, nil
}

func (s *HTTPSource) PostConversationMessage(ctx context.Context, req model.ConversationRequest) (model.ConversationReply, error) {
	var reply model.ConversationReply
	if err := s.doJSON(ctx, http.MethodPost, s.chatPath, req, &reply); err != nil {
		return model.ConversationReply{}, err
	}
	return reply, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
func (s *HTTPSource) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "chainview/"+version.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if id := explore.CycleIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
