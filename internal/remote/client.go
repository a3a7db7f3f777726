package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/stridehq/stride/internal/types"
)

// Compile-time interface check
var _ Service = (*Client)(nil)

// problem mirrors the RFC 7807 Problem Details payload the goals service
// returns on failure, extended with an enumerated rule code for hierarchy
// violations. Classification reads the code field only, never the free text.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a goals service client. Every request is bounded by the
// given timeout; a zero timeout defaults to 15s.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *Client) FetchAll(ctx context.Context, ownerID string) ([]types.Goal, error) {
	var page types.GoalPage
	path := "/api/v1/goals?owner_id=" + url.QueryEscape(ownerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Goals, nil
}

func (c *Client) FetchByID(ctx context.Context, id string) (*types.Goal, error) {
	var goal types.Goal
	if err := c.do(ctx, http.MethodGet, "/api/v1/goals/"+url.PathEscape(id), nil, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (c *Client) Create(ctx context.Context, goal types.Goal) (*types.Goal, error) {
	var created types.Goal
	if err := c.do(ctx, http.MethodPost, "/api/v1/goals", goal, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) Update(ctx context.Context, goal types.Goal) (*types.Goal, error) {
	var updated types.Goal
	if err := c.do(ctx, http.MethodPut, "/api/v1/goals/"+url.PathEscape(goal.ID), goal, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/goals/"+url.PathEscape(id), nil, nil)
}

func (c *Client) FetchLongTermCandidates(ctx context.Context, ownerID string) ([]types.Goal, error) {
	var page types.GoalPage
	path := "/api/v1/goals/candidates?owner_id=" + url.QueryEscape(ownerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Goals, nil
}

func (c *Client) LinkGoal(ctx context.Context, childID, parentID string) (*types.Goal, error) {
	var linked types.Goal
	body := types.LinkRequest{ParentGoalID: parentID}
	path := "/api/v1/goals/" + url.PathEscape(childID) + "/link"
	if err := c.do(ctx, http.MethodPost, path, body, &linked); err != nil {
		return nil, err
	}
	return &linked, nil
}

func (c *Client) UnlinkGoal(ctx context.Context, childID string) (*types.Goal, error) {
	var unlinked types.Goal
	path := "/api/v1/goals/" + url.PathEscape(childID) + "/unlink"
	if err := c.do(ctx, http.MethodPost, path, nil, &unlinked); err != nil {
		return nil, err
	}
	return &unlinked, nil
}

func (c *Client) FetchChildren(ctx context.Context, parentID string) ([]types.Goal, error) {
	var page types.GoalPage
	path := "/api/v1/goals/" + url.PathEscape(parentID) + "/children"
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Goals, nil
}

func (c *Client) FetchParent(ctx context.Context, childID string) (*types.Goal, error) {
	var parent types.Goal
	path := "/api/v1/goals/" + url.PathEscape(childID) + "/parent"
	if err := c.do(ctx, http.MethodGet, path, nil, &parent); err != nil {
		return nil, err
	}
	return &parent, nil
}

// do performs a request and decodes the response into out (when non-nil).
// All failures come back classified.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts, refused connections, DNS failures: all network-class.
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return classify(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
		}
	}
	return nil
}

// classify maps an error response to the client error taxonomy.
func classify(resp *http.Response) error {
	var p problem
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &p)

	if p.Code != "" && knownLinkRuleCode(p.Code) {
		return &LinkRuleError{Code: LinkRuleCode(p.Code), Detail: p.Detail}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}

	msg := p.Detail
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &ServerError{Status: resp.StatusCode, Message: msg}
}
