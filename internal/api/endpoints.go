package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pollmaster/console/internal/apierr"
	"github.com/pollmaster/console/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Jwt  string      `json:"jwt"`
	User domain.User `json:"user"`
}

// ExchangeLogin trades credentials for a session. Rejected credentials come
// back as *apierr.AuthError; the session manager owns the result.
func (c *Client) ExchangeLogin(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, nil, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Jwt == "" {
		return nil, &apierr.TransportError{Op: "POST /auth/login", Err: fmt.Errorf("login response carried no token")}
	}
	return &domain.Session{Token: resp.Jwt, User: resp.User}, nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ExchangeRegister creates an account. Duplicate emails and other payload
// problems surface as *apierr.ValidationError.
func (c *Client) ExchangeRegister(ctx context.Context, name, email, password, role string) error {
	body := registerRequest{Name: name, Email: email, Password: password, Role: role}
	return c.do(ctx, http.MethodPost, "/auth/register", body, nil, nil)
}

// pageResponse is the Spring-style paginated shape.
type pageResponse struct {
	Content       []domain.Poll `json:"content"`
	TotalPages    int           `json:"totalPages"`
	TotalElements int           `json:"totalElements"`
	Number        int           `json:"number"`
}

// ListPolls fetches one page of poll summaries. The backend answers either a
// paginated object or a bare array; both normalize to a PollPage here, at the
// boundary, so nothing downstream ever branches on response shape.
func (c *Client) ListPolls(ctx context.Context, page, size int, search string) (*domain.PollPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	if s := strings.TrimSpace(search); s != "" {
		params.Set("search", s)
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/polls", nil, params, &raw); err != nil {
		return nil, err
	}
	return decodePollPage(raw)
}

func decodePollPage(raw json.RawMessage) (*domain.PollPage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		// Unpaginated fallback: everything in one page.
		var items []domain.Poll
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, &apierr.TransportError{Op: "GET /polls", Err: err}
		}
		return &domain.PollPage{Items: items, TotalPages: 1, TotalElements: len(items), Number: 0}, nil
	}

	var resp pageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &apierr.TransportError{Op: "GET /polls", Err: err}
	}
	totalPages := resp.TotalPages
	if totalPages == 0 {
		totalPages = 1
	}
	totalElements := resp.TotalElements
	if totalElements == 0 {
		totalElements = len(resp.Content)
	}
	return &domain.PollPage{
		Items:         resp.Content,
		TotalPages:    totalPages,
		TotalElements: totalElements,
		Number:        resp.Number,
	}, nil
}

// GetPoll fetches one poll by ID. A deleted poll surfaces as a 404
// RequestError, which views render as "poll not found".
func (c *Client) GetPoll(ctx context.Context, id int64) (*domain.Poll, error) {
	var poll domain.Poll
	if err := c.do(ctx, http.MethodGet, "/polls/"+strconv.FormatInt(id, 10), nil, nil, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// CreatePoll submits a new poll. Admin only; the backend enforces the role.
func (c *Client) CreatePoll(ctx context.Context, req domain.CreatePollRequest) (*domain.Poll, error) {
	var poll domain.Poll
	if err := c.do(ctx, http.MethodPost, "/polls", req, nil, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

type voteRequest struct {
	OptionID int64 `json:"optionId"`
}

// Vote casts the viewer's vote for one option. The backend enforces at most
// one vote per viewer per poll; a second attempt is rejected with a message,
// never double counted.
func (c *Client) Vote(ctx context.Context, pollID, optionID int64) (*domain.ActionResult, error) {
	var result domain.ActionResult
	path := "/polls/" + strconv.FormatInt(pollID, 10) + "/vote"
	if err := c.do(ctx, http.MethodPost, path, voteRequest{OptionID: optionID}, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClosePoll moves the poll to CLOSED. Admin only.
func (c *Client) ClosePoll(ctx context.Context, pollID int64) error {
	path := "/polls/" + strconv.FormatInt(pollID, 10) + "/close"
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

// DeletePoll removes the poll and all its votes; the identifier is invalid
// afterwards. Admin only.
func (c *Client) DeletePoll(ctx context.Context, pollID int64) error {
	return c.do(ctx, http.MethodDelete, "/polls/"+strconv.FormatInt(pollID, 10), nil, nil, nil)
}

// History fetches the viewer's participation record.
func (c *Client) History(ctx context.Context) (*domain.UserHistory, error) {
	var history domain.UserHistory
	if err := c.do(ctx, http.MethodGet, "/users/me/history", nil, nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}
