package api

// Package api provides a client for the Jigsaw Puzzle Helper REST API.
// It covers puzzle CRUD and the first phase of the two-phase image upload
// (requesting a presigned upload URL). The structures in models.go mirror the
// JSON payloads of the backend.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// TokenSource supplies the current bearer token for authenticated calls.
// An empty token means the request goes out unauthenticated (anonymous mode).
type TokenSource interface {
	IDToken(ctx context.Context) (string, error)
}

// Client is the HTTP client wrapper for communicating with the puzzle API.
type Client struct {
	BaseURL    string       // The root URL of the API
	HTTPClient *http.Client // underlying http.Client with timeouts configured
	Tokens     TokenSource  // optional; nil in anonymous mode
}

// NewClient creates a new API client with configured timeouts and connection pooling.
func NewClient(baseURL string, timeoutStr string) *Client {
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
	}

	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// CreatePuzzle registers a new puzzle project. The record is created without
// an image; call RequestUploadURL afterwards to attach one.
func (c *Client) CreatePuzzle(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	var resp CreateResponse
	if err := c.postJSON(ctx, "/puzzles", req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestUploadURL asks the API for a presigned upload target for an existing
// puzzle. This is phase one of the upload; the returned Grant authorizes
// exactly one PUT of the image bytes.
func (c *Client) RequestUploadURL(ctx context.Context, puzzleID string, req UploadURLRequest) (*Grant, error) {
	path := fmt.Sprintf("/puzzles/%s/upload", url.PathEscape(puzzleID))
	var grant Grant
	if err := c.postJSON(ctx, path, req, http.StatusOK, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// GetPuzzle fetches a single puzzle record.
func (c *Client) GetPuzzle(ctx context.Context, puzzleID, userID string) (*Puzzle, error) {
	path := fmt.Sprintf("/puzzles/%s?user_id=%s", url.PathEscape(puzzleID), url.QueryEscape(userID))
	var p Puzzle
	if err := c.getJSON(ctx, path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPuzzles fetches all puzzles belonging to a user. Each call returns the
// full collection; there is no pagination.
func (c *Client) ListPuzzles(ctx context.Context, userID string) ([]Puzzle, error) {
	path := fmt.Sprintf("/users/%s/puzzles", url.PathEscape(userID))
	var resp ListResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Puzzles, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, wantStatus int, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request to %s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request to %s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// authorize attaches a Bearer token when a token source is configured.
// The token is fetched fresh for every request; no caching is done here.
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.Tokens == nil {
		return nil
	}
	token, err := c.Tokens.IDToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get id token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}
