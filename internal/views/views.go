package views

import (
	"context"

	"github.com/pollmaster/console/internal/domain"
)

// PollAPI is the slice of the gateway client the views consume.
type PollAPI interface {
	ListPolls(ctx context.Context, page, size int, search string) (*domain.PollPage, error)
	GetPoll(ctx context.Context, id int64) (*domain.Poll, error)
	CreatePoll(ctx context.Context, req domain.CreatePollRequest) (*domain.Poll, error)
	Vote(ctx context.Context, pollID, optionID int64) (*domain.ActionResult, error)
	ClosePoll(ctx context.Context, pollID int64) error
	DeletePoll(ctx context.Context, pollID int64) error
	History(ctx context.Context) (*domain.UserHistory, error)
}

// Confirmer gates destructive actions behind an explicit user confirmation.
// The shell backs it with a terminal prompt; tests stub it.
type Confirmer interface {
	Confirm(prompt string) bool
}
