package views

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pollmaster/console/internal/apierr"
	"github.com/pollmaster/console/internal/domain"
)

// VotePhase is where the detail view stands in the voting flow.
type VotePhase int

const (
	// PhaseLoading: initial fetch in flight, no interaction possible.
	PhaseLoading VotePhase = iota
	// PhaseReady: options are clickable, no vote cast yet.
	PhaseReady
	// PhaseVoting: exactly one vote request in flight, options disabled.
	PhaseVoting
	// PhaseVoted: confirmation shown, options inert for good.
	PhaseVoted
)

func (p VotePhase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseVoting:
		return "voting"
	case PhaseVoted:
		return "voted"
	default:
		return "unknown"
	}
}

var errVoteInFlight = errors.New("a vote is already in flight")

// DetailView is the poll detail screen: it fetches one poll, runs the voting
// flow and merges live tally overwrites into the same poll. The voting flow
// and the live merge are decoupled: updates apply in every phase.
type DetailView struct {
	api     PollAPI
	live    domain.LiveSubscriber
	confirm Confirmer
	pollID  int64

	mu      sync.Mutex
	poll    *domain.Poll
	phase   VotePhase
	errMsg  string
	sub     domain.LiveSubscription
	mergeWG sync.WaitGroup
}

// NewDetailView creates the view for one poll. live may be nil, which simply
// disables the live-update enhancement.
func NewDetailView(api PollAPI, live domain.LiveSubscriber, confirm Confirmer, pollID int64) *DetailView {
	return &DetailView{
		api:     api,
		live:    live,
		confirm: confirm,
		pollID:  pollID,
		phase:   PhaseLoading,
	}
}

// Load fetches the poll and, on first success, opens the live-update channel.
// A 404 means the poll was deleted; any subscribe failure is non-fatal.
func (d *DetailView) Load(ctx context.Context) error {
	poll, err := d.api.GetPoll(ctx, d.pollID)
	if err != nil {
		d.mu.Lock()
		defer d.mu.Unlock()
		if apierr.IsNotFound(err) {
			d.errMsg = "poll not found"
			return domain.ErrPollNotFound
		}
		d.errMsg = apierr.UserMessage(err, "failed to load poll")
		return err
	}

	d.mu.Lock()
	d.poll = poll
	if d.phase == PhaseLoading {
		d.phase = PhaseReady
	}
	d.errMsg = ""
	alreadySubscribed := d.sub != nil
	d.mu.Unlock()

	if alreadySubscribed || d.live == nil {
		return nil
	}

	sub, err := d.live.Subscribe(ctx, d.pollID)
	if err != nil {
		// Live updates are an enhancement; the view keeps working from
		// fetched data.
		slog.Warn("Live updates unavailable", "poll_id", d.pollID, "error", err)
		return nil
	}

	d.mu.Lock()
	d.sub = sub
	d.mu.Unlock()

	d.mergeWG.Add(1)
	go d.mergeLoop(sub)
	return nil
}

// mergeLoop applies tally overwrites until the subscription ends.
func (d *DetailView) mergeLoop(sub domain.LiveSubscription) {
	defer d.mergeWG.Done()
	for update := range sub.Updates() {
		d.applyUpdate(update)
	}
}

// applyUpdate overwrites the matching option's count with the delivered
// absolute value. Applying the same update twice changes nothing, and updates
// land regardless of the voting phase. Unknown option IDs are ignored.
func (d *DetailView) applyUpdate(update domain.VoteUpdate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.poll == nil {
		return
	}
	for i := range d.poll.Options {
		if d.poll.Options[i].ID == update.OptionID {
			d.poll.Options[i].VoteCount = update.VoteCount
			return
		}
	}
}

// CanVote reports whether the options are currently clickable.
func (d *DetailView) CanVote() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase == PhaseReady && d.poll != nil && !d.poll.Closed()
}

// Vote casts the viewer's vote. No optimistic update: the tally only moves on
// the backend's say-so (or a live overwrite). On failure the view returns to
// the ready phase with the carried message so the viewer can retry.
func (d *DetailView) Vote(ctx context.Context, optionID int64) error {
	d.mu.Lock()
	switch {
	case d.poll == nil || d.phase == PhaseLoading:
		d.mu.Unlock()
		return domain.ErrPollNotFound
	case d.poll.Closed():
		d.mu.Unlock()
		return domain.ErrPollClosed
	case d.phase == PhaseVoted:
		d.mu.Unlock()
		return domain.ErrAlreadyVoted
	case d.phase == PhaseVoting:
		d.mu.Unlock()
		return errVoteInFlight
	}
	d.phase = PhaseVoting
	d.errMsg = ""
	d.mu.Unlock()

	result, err := d.api.Vote(ctx, d.pollID, optionID)

	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		d.phase = PhaseReady
		d.errMsg = apierr.UserMessage(err, "error casting vote")
		return err
	}
	if !result.Success {
		d.phase = PhaseReady
		d.errMsg = result.Message
		if d.errMsg == "" {
			d.errMsg = "error casting vote"
		}
		return domain.ErrAlreadyVoted
	}

	d.phase = PhaseVoted
	return nil
}

// ClosePoll is the admin action moving the poll to CLOSED. It is gated on an
// explicit confirmation, and refetches afterwards so the closed status
// renders immediately.
func (d *DetailView) ClosePoll(ctx context.Context) error {
	if !d.confirm.Confirm("Are you sure you want to close this poll?") {
		return nil
	}
	if err := d.api.ClosePoll(ctx, d.pollID); err != nil {
		d.setError(apierr.UserMessage(err, "error closing poll"))
		return err
	}
	return d.Load(ctx)
}

// DeletePoll is the admin action removing the poll and all its votes. The
// identifier is permanently invalid afterwards.
func (d *DetailView) DeletePoll(ctx context.Context) (bool, error) {
	if !d.confirm.Confirm("DANGER: This will delete the poll and all votes. Continue?") {
		return false, nil
	}
	if err := d.api.DeletePoll(ctx, d.pollID); err != nil {
		d.setError(apierr.UserMessage(err, "error deleting poll"))
		return false, err
	}
	return true, nil
}

// Teardown closes the live subscription. Must be called when navigating away
// so the topic subscription does not leak.
func (d *DetailView) Teardown() {
	d.mu.Lock()
	sub := d.sub
	d.sub = nil
	d.mu.Unlock()

	if sub != nil {
		sub.Close()
		d.mergeWG.Wait()
	}
}

// Snapshot returns a copy of the poll plus the current phase for rendering.
// The returned poll is detached; mutating it does not affect the view.
func (d *DetailView) Snapshot() (*domain.Poll, VotePhase, string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.poll == nil {
		return nil, d.phase, d.errMsg
	}
	copied := *d.poll
	copied.Options = make([]domain.Option, len(d.poll.Options))
	copy(copied.Options, d.poll.Options)
	return &copied, d.phase, d.errMsg
}

func (d *DetailView) setError(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errMsg = msg
}
