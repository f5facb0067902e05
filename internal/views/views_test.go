package views

import (
	"context"
	"sync"

	"github.com/pollmaster/console/internal/domain"
)

// stubAPI implements PollAPI with overridable hooks and call counting.
type stubAPI struct {
	mu    sync.Mutex
	calls map[string]int

	listFn    func(ctx context.Context, page, size int, search string) (*domain.PollPage, error)
	getFn     func(ctx context.Context, id int64) (*domain.Poll, error)
	createFn  func(ctx context.Context, req domain.CreatePollRequest) (*domain.Poll, error)
	voteFn    func(ctx context.Context, pollID, optionID int64) (*domain.ActionResult, error)
	closeFn   func(ctx context.Context, pollID int64) error
	deleteFn  func(ctx context.Context, pollID int64) error
	historyFn func(ctx context.Context) (*domain.UserHistory, error)
}

func newStubAPI() *stubAPI {
	return &stubAPI{calls: make(map[string]int)}
}

func (s *stubAPI) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
}

func (s *stubAPI) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubAPI) ListPolls(ctx context.Context, page, size int, search string) (*domain.PollPage, error) {
	s.record("ListPolls")
	if s.listFn != nil {
		return s.listFn(ctx, page, size, search)
	}
	return &domain.PollPage{TotalPages: 1}, nil
}

func (s *stubAPI) GetPoll(ctx context.Context, id int64) (*domain.Poll, error) {
	s.record("GetPoll")
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &domain.Poll{ID: id, Status: domain.PollStatusActive}, nil
}

func (s *stubAPI) CreatePoll(ctx context.Context, req domain.CreatePollRequest) (*domain.Poll, error) {
	s.record("CreatePoll")
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return &domain.Poll{ID: 1, Title: req.Title}, nil
}

func (s *stubAPI) Vote(ctx context.Context, pollID, optionID int64) (*domain.ActionResult, error) {
	s.record("Vote")
	if s.voteFn != nil {
		return s.voteFn(ctx, pollID, optionID)
	}
	return &domain.ActionResult{Success: true}, nil
}

func (s *stubAPI) ClosePoll(ctx context.Context, pollID int64) error {
	s.record("ClosePoll")
	if s.closeFn != nil {
		return s.closeFn(ctx, pollID)
	}
	return nil
}

func (s *stubAPI) DeletePoll(ctx context.Context, pollID int64) error {
	s.record("DeletePoll")
	if s.deleteFn != nil {
		return s.deleteFn(ctx, pollID)
	}
	return nil
}

func (s *stubAPI) History(ctx context.Context) (*domain.UserHistory, error) {
	s.record("History")
	if s.historyFn != nil {
		return s.historyFn(ctx)
	}
	return &domain.UserHistory{}, nil
}

// stubConfirmer answers every prompt with a fixed verdict and remembers what
// it was asked.
type stubConfirmer struct {
	answer  bool
	prompts []string
}

func (c *stubConfirmer) Confirm(prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

// stubSubscription is an in-memory live channel fed by tests.
type stubSubscription struct {
	updates chan domain.VoteUpdate
	once    sync.Once
}

func newStubSubscription() *stubSubscription {
	return &stubSubscription{updates: make(chan domain.VoteUpdate, 8)}
}

func (s *stubSubscription) Updates() <-chan domain.VoteUpdate { return s.updates }

func (s *stubSubscription) Close() {
	s.once.Do(func() { close(s.updates) })
}

type stubLive struct {
	mu    sync.Mutex
	sub   *stubSubscription
	err   error
	dials int
}

func (s *stubLive) Subscribe(_ context.Context, _ int64) (domain.LiveSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dials++
	if s.err != nil {
		return nil, s.err
	}
	return s.sub, nil
}

func (s *stubLive) dialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}
