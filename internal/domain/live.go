package domain

import "context"

// VoteUpdate is a point update for one option's tally: the new absolute count,
// not a diff. Consumers must overwrite, never increment, so receiving the same
// update twice is a no-op.
type VoteUpdate struct {
	OptionID  int64 `json:"optionId"`
	VoteCount int   `json:"voteCount"`
}

// LiveSubscription is a cancellable handle on a per-poll update stream.
// Updates is closed when the stream ends, whether by Close or by transport
// failure; Close is idempotent.
type LiveSubscription interface {
	Updates() <-chan VoteUpdate
	Close()
}

// LiveSubscriber opens the push channel for one poll's tally updates. A
// subscribe failure must be treated as non-fatal by callers: live updates are
// an enhancement over fetched data, not a correctness requirement.
type LiveSubscriber interface {
	Subscribe(ctx context.Context, pollID int64) (LiveSubscription, error)
}
