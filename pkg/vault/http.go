package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/heirloomhq/heirloom/pkg/passport"
)

// DefaultHTTPTimeout bounds a single vault request.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPClient implements Store and ConsentChecker against a remote vault
// service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a vault client for the given base URL
// (e.g. "http://localhost:3001").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultHTTPTimeout},
	}
}

// envelope is the vault's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, headers map[string]string) (json.RawMessage, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("vault request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("vault returned %d: unparseable body", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, resp.StatusCode, fmt.Errorf("vault returned %d: %s", resp.StatusCode, msg)
	}
	return env.Data, resp.StatusCode, nil
}

// CreatePassport posts the document to the vault and returns the assigned id.
func (c *HTTPClient) CreatePassport(ctx context.Context, doc *passport.Passport) (string, error) {
	body := map[string]any{
		"familyName":   doc.Heritage.FamilyName,
		"contributor":  doc.Heritage.PrimaryContributor.Name,
		"passportData": doc,
	}
	data, _, err := c.do(ctx, http.MethodPost, "/passport", body, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		PassportID string `json:"passportId"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("parse passport id: %w", err)
	}
	return out.PassportID, nil
}

// UpdatePassport replaces the document body of an existing passport.
func (c *HTTPClient) UpdatePassport(ctx context.Context, passportID string, doc *passport.Passport) error {
	body := map[string]any{
		"familyName":   doc.Heritage.FamilyName,
		"contributor":  doc.Heritage.PrimaryContributor.Name,
		"passportData": doc,
	}
	_, status, err := c.do(ctx, http.MethodPut, "/passport/"+url.PathEscape(passportID), body, nil)
	if status == http.StatusNotFound {
		return NotFoundError{ID: passportID}
	}
	return err
}

// ListPassports returns summary info for all stored passports.
func (c *HTTPClient) ListPassports(ctx context.Context) ([]Info, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/passports", nil, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Passports []Info `json:"passports"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse passports: %w", err)
	}
	return out.Passports, nil
}

// FindPassportByContributor asks the vault for an existing passport owned
// by the named contributor. Returns "" without error when none exists.
func (c *HTTPClient) FindPassportByContributor(ctx context.Context, name string) (string, error) {
	path := "/passports/search?contributor=" + url.QueryEscape(name)
	data, status, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if status == http.StatusNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var out struct {
		PassportID string `json:"passportId"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("parse search result: %w", err)
	}
	return out.PassportID, nil
}

// CreateMemory stores one memory under an existing passport.
func (c *HTTPClient) CreateMemory(ctx context.Context, passportID string, mem passport.Memory) error {
	body := map[string]any{
		"passportId":        passportID,
		"memoryId":          mem.MemoryID,
		"sourceRef":         mem.SourceRef,
		"contributorName":   mem.ContributorName,
		"emotionalWeight":   mem.EmotionalWeight,
		"lifeTheme":         mem.LifeTheme,
		"situationalTags":   mem.SituationalTags,
		"memoryType":        mem.MemoryType,
		"verifiedBySubject": mem.VerifiedBySubject,
		"text":              mem.Text,
		"wisdomExtracted":   mem.WisdomExtracted,
		"valueExpressed":    mem.ValueExpressed,
		"createdAt":         mem.CreatedAt,
	}
	_, _, err := c.do(ctx, http.MethodPost, "/memories", body, nil)
	return err
}

// ListMemories fetches all memories for a passport. Always fresh; the
// delivery path never caches.
func (c *HTTPClient) ListMemories(ctx context.Context, passportID string) ([]passport.Memory, error) {
	path := "/passport/" + url.PathEscape(passportID) + "/memories?limit=100"
	data, status, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if status == http.StatusNotFound {
		return nil, NotFoundError{ID: passportID}
	}
	if err != nil {
		return nil, err
	}
	var out struct {
		Memories []passport.Memory `json:"memories"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse memories: %w", err)
	}
	return out.Memories, nil
}

// ExportPassport returns the full document for a passport id.
func (c *HTTPClient) ExportPassport(ctx context.Context, passportID string) (*passport.Passport, error) {
	path := "/passport/" + url.PathEscape(passportID) + "/export"
	data, status, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if status == http.StatusNotFound {
		return nil, NotFoundError{ID: passportID}
	}
	if err != nil {
		return nil, err
	}
	var doc passport.Passport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse passport: %w", err)
	}
	return &doc, nil
}

// ConsentStatus validates a bearer token with the vault. Any transport or
// vault-side failure reports the token as invalid rather than erroring:
// delivery must fail closed.
func (c *HTTPClient) ConsentStatus(ctx context.Context, token string) (Consent, error) {
	headers := map[string]string{"Authorization": "Bearer " + token}
	data, _, err := c.do(ctx, http.MethodGet, "/consent/status", nil, headers)
	if err != nil {
		return Consent{Valid: false}, nil
	}
	var consent Consent
	if err := json.Unmarshal(data, &consent); err != nil {
		return Consent{Valid: false}, nil
	}
	return consent, nil
}

// Close releases client resources.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
