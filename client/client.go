// Package client talks to the civicsync authority over HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"civicsync/models"
)

// HTTPClient interface for HTTP operations (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements the issue API against the authority's REST endpoints.
type Client struct {
	baseURL    string
	httpClient HTTPClient
}

// New creates a Client rooted at baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// EventsURL is the server-sent event stream of status changes.
func (c *Client) EventsURL() string {
	return c.baseURL + "/issues/events"
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a citizen account.
func (c *Client) Register(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	err := c.do(ctx, "register", http.MethodPost, "/auth/register", models.Session{},
		credentials{Username: username, Password: password}, &user)
	return user, err
}

// Login exchanges credentials for a Session.
func (c *Client) Login(ctx context.Context, username, password string) (models.Session, error) {
	var session models.Session
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", models.Session{},
		credentials{Username: username, Password: password}, &session)
	if err != nil {
		return models.Session{}, err
	}
	if !session.Authenticated() || !session.Role.Valid() {
		return models.Session{}, fmt.Errorf("login: %w: incomplete session", models.ErrInvalidInput)
	}
	return session, nil
}

// FetchIssues returns every issue in the authority's order.
func (c *Client) FetchIssues(ctx context.Context) ([]models.Issue, error) {
	var issues []models.Issue
	if err := c.do(ctx, "fetch issues", http.MethodGet, "/issues", models.Session{}, nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// CreateIssue reports a new issue and returns it as stored.
func (c *Client) CreateIssue(ctx context.Context, session models.Session, input models.IssueInput) (models.Issue, error) {
	var issue models.Issue
	err := c.do(ctx, "create issue", http.MethodPost, "/issues", session, input, &issue)
	return issue, err
}

// Upvote records session's vote on the issue.
func (c *Client) Upvote(ctx context.Context, session models.Session, id string) error {
	return c.do(ctx, "upvote", http.MethodPut, "/issues/"+url.PathEscape(id)+"/upvote", session, nil, nil)
}

// SetStatus moves the issue to status.
func (c *Client) SetStatus(ctx context.Context, session models.Session, id string, status models.IssueStatus) error {
	body := struct {
		Status models.IssueStatus `json:"status"`
	}{Status: status}
	return c.do(ctx, "set status", http.MethodPut, "/issues/"+url.PathEscape(id)+"/status", session, body, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, session models.Session, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope models.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		return &models.NetworkError{
			Op:  op,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	apiErr := envelope.Error
	if err := errorForCode(apiErr); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &models.NetworkError{
		Op:  op,
		Err: fmt.Errorf("status %d: %s: %s", resp.StatusCode, apiErr.Code, apiErr.Message),
	}
}

// errorForCode maps an API error back to the core error taxonomy. It
// returns nil for codes with no core meaning.
func errorForCode(apiErr models.APIError) error {
	var sentinel error
	switch apiErr.Code {
	case models.CodeValidation:
		verr := &models.ValidationError{Field: "", Message: apiErr.Message}
		if len(apiErr.Details) > 0 {
			verr.Field = apiErr.Details[0].Field
			verr.Message = apiErr.Details[0].Message
		}
		return verr
	case models.CodeInvalidInput:
		sentinel = models.ErrInvalidInput
	case models.CodeUnauthorized, models.CodeForbidden:
		sentinel = models.ErrUnauthorized
	case models.CodeNotFound:
		sentinel = models.ErrNotFound
	case models.CodeAlreadyVoted:
		sentinel = models.ErrAlreadyVoted
	case models.CodeInvalidStatus:
		sentinel = models.ErrInvalidStatus
	case models.CodeConflict:
		sentinel = models.ErrConflict
	default:
		return nil
	}
	if apiErr.Message == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, apiErr.Message)
}

// IsNetworkError reports whether err came from the transport rather than
// an authority decision.
func IsNetworkError(err error) bool {
	var netErr *models.NetworkError
	return errors.As(err, &netErr)
}
