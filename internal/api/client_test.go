package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollmaster/console/internal/apierr"
	"github.com/pollmaster/console/internal/domain"
)

type fakeCredentials struct {
	mu          sync.Mutex
	token       string
	invalidated []string
}

func (f *fakeCredentials) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeCredentials) Invalidate(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, reason)
}

func (f *fakeCredentials) invalidations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invalidated)
}

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *fakeCredentials) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	creds := &fakeCredentials{token: token}
	return NewClient(srv.URL, 5*time.Second, creds), creds
}

func TestClient_AttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID, gotContentType string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewEncoder(w).Encode(domain.Poll{ID: 1})
	})
	client, _ := newTestClient(t, handler, "token-123")

	_, err := client.GetPoll(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClient_NoAuthHeaderWhenLoggedOut(t *testing.T) {
	var gotAuth string
	sawAuth := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, sawAuth = r.Header["Authorization"]
		_ = json.NewEncoder(w).Encode([]domain.Poll{})
	})
	client, _ := newTestClient(t, handler, "")

	_, err := client.ListPolls(context.Background(), 0, 9, "")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.False(t, sawAuth)
}

func TestClient_UnauthorizedInvalidatesCredentials(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	})
	client, creds := newTestClient(t, handler, "stale-token")

	_, err := client.GetPoll(context.Background(), 42)
	assert.True(t, apierr.IsAuth(err))
	assert.Equal(t, 1, creds.invalidations())

	var authErr *apierr.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "token expired", authErr.Message)
}

func TestClient_BadRequestIsValidationError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(domain.ActionResult{Success: false, Message: "You have already voted on this poll"})
	})
	client, creds := newTestClient(t, handler, "token")

	_, err := client.Vote(context.Background(), 1, 2)
	assert.True(t, apierr.IsValidation(err))
	assert.Equal(t, 0, creds.invalidations())
	assert.Equal(t, "You have already voted on this poll", apierr.UserMessage(err, "fallback"))
}

func TestClient_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler(), "token")

	_, err := client.GetPoll(context.Background(), 999)
	assert.True(t, apierr.IsNotFound(err))
}

func TestClient_TransportErrorOnUnreachableBackend(t *testing.T) {
	creds := &fakeCredentials{token: "token"}
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond, creds)

	_, err := client.GetPoll(context.Background(), 1)
	assert.True(t, apierr.IsTransport(err))
	assert.Equal(t, 0, creds.invalidations())
}

func TestExchangeLogin(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice@example.com", body.Email)
		_ = json.NewEncoder(w).Encode(loginResponse{
			Jwt:  "fresh-token",
			User: domain.User{ID: 7, Name: "Alice", Role: domain.RoleAdmin},
		})
	})
	client, _ := newTestClient(t, handler, "")

	sess, err := client.ExchangeLogin(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", sess.Token)
	assert.True(t, sess.User.IsAdmin())
}

func TestExchangeLogin_EmptyTokenIsError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(loginResponse{})
	})
	client, _ := newTestClient(t, handler, "")

	_, err := client.ExchangeLogin(context.Background(), "a", "b")
	assert.True(t, apierr.IsTransport(err))
}

func TestListPolls_SendsPagingParams(t *testing.T) {
	var gotQuery map[string][]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(pageResponse{Content: []domain.Poll{{ID: 1}}, TotalPages: 3, TotalElements: 25, Number: 2})
	})
	client, _ := newTestClient(t, handler, "token")

	page, err := client.ListPolls(context.Background(), 2, 9, "  climate  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	assert.Equal(t, []string{"9"}, gotQuery["size"])
	assert.Equal(t, []string{"climate"}, gotQuery["search"])
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 25, page.TotalElements)
	assert.Equal(t, 2, page.Number)
}

func TestListPolls_BlankSearchOmitted(t *testing.T) {
	var hasSearch bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSearch = r.URL.Query().Has("search")
		_ = json.NewEncoder(w).Encode(pageResponse{})
	})
	client, _ := newTestClient(t, handler, "token")

	_, err := client.ListPolls(context.Background(), 0, 9, "   ")
	require.NoError(t, err)
	assert.False(t, hasSearch)
}

func TestDecodePollPage(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantItems    int
		wantPages    int
		wantElements int
		wantNumber   int
	}{
		{
			name:         "paginated object",
			raw:          `{"content":[{"id":1},{"id":2}],"totalPages":4,"totalElements":31,"number":1}`,
			wantItems:    2,
			wantPages:    4,
			wantElements: 31,
			wantNumber:   1,
		},
		{
			name:         "bare array",
			raw:          `[{"id":1},{"id":2},{"id":3}]`,
			wantItems:    3,
			wantPages:    1,
			wantElements: 3,
			wantNumber:   0,
		},
		{
			name:         "object without paging metadata",
			raw:          `{"content":[{"id":1}]}`,
			wantItems:    1,
			wantPages:    1,
			wantElements: 1,
			wantNumber:   0,
		},
		{
			name:         "empty array",
			raw:          `[]`,
			wantItems:    0,
			wantPages:    1,
			wantElements: 0,
			wantNumber:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := decodePollPage(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Len(t, page.Items, tt.wantItems)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.Equal(t, tt.wantElements, page.TotalElements)
			assert.Equal(t, tt.wantNumber, page.Number)
		})
	}
}

func TestVote_SendsOptionID(t *testing.T) {
	var gotPath string
	var gotBody voteRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(domain.ActionResult{Success: true, Message: "Vote recorded"})
	})
	client, _ := newTestClient(t, handler, "token")

	result, err := client.Vote(context.Background(), 17, 42)
	require.NoError(t, err)
	assert.Equal(t, "/polls/17/vote", gotPath)
	assert.Equal(t, int64(42), gotBody.OptionID)
	assert.True(t, result.Success)
}

func TestClosePollAndDeletePoll_Paths(t *testing.T) {
	var gotMethod, gotPath string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	client, _ := newTestClient(t, handler, "token")

	require.NoError(t, client.ClosePoll(context.Background(), 5))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/polls/5/close", gotPath)

	require.NoError(t, client.DeletePoll(context.Background(), 5))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/polls/5", gotPath)
}

func TestReadErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message key", `{"message":"poll is closed"}`, "poll is closed"},
		{"error key", `{"error":"forbidden"}`, "forbidden"},
		{"message wins over error", `{"message":"a","error":"b"}`, "a"},
		{"not json", `<html>panic</html>`, ""},
		{"empty body", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, readErrorMessage(strings.NewReader(tt.body)))
		})
	}
}
