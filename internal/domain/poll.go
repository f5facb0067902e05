package domain

import "time"

// PollStatus is the lifecycle state of a poll. The only legal transition is
// ACTIVE to CLOSED; a closed poll never reopens.
type PollStatus string

const (
	PollStatusActive PollStatus = "ACTIVE"
	PollStatusClosed PollStatus = "CLOSED"
)

// Poll is a question with a fixed, ordered set of options. Field names mirror
// the backend's JSON wire format.
type Poll struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	CreatedBy  *UserRef   `json:"createdBy,omitempty"`
	Status     PollStatus `json:"status"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	Options    []Option   `json:"options"`
}

// Option is one selectable choice within a poll, carrying the running tally.
type Option struct {
	ID         int64  `json:"id"`
	OptionText string `json:"optionText"`
	VoteCount  int    `json:"voteCount"`
}

// Closed reports whether voting on the poll is over.
func (p *Poll) Closed() bool {
	return p.Status == PollStatusClosed
}

// TotalVotes sums the vote counts of all options.
func (p *Poll) TotalVotes() int {
	total := 0
	for _, opt := range p.Options {
		total += opt.VoteCount
	}
	return total
}

// Percentages returns each option's share of the total vote count, indexed by
// option ID. When no votes have been cast every share is exactly zero; there
// is no division by zero.
func (p *Poll) Percentages() map[int64]float64 {
	shares := make(map[int64]float64, len(p.Options))
	total := p.TotalVotes()
	for _, opt := range p.Options {
		if total == 0 {
			shares[opt.ID] = 0
			continue
		}
		shares[opt.ID] = float64(opt.VoteCount) / float64(total) * 100
	}
	return shares
}

// PollPage is the normalized representation of one page of poll summaries.
// The backend answers either a Spring-style page object or a bare array; both
// are decoded into this shape at the API boundary.
type PollPage struct {
	Items         []Poll
	TotalPages    int
	TotalElements int
	Number        int
}

// HasMore reports whether another page can be requested after this one.
func (p *PollPage) HasMore() bool {
	return p.Number+1 < p.TotalPages
}

// CreatePollRequest is the payload for creating a poll. Options are already
// trimmed and filtered by the creation form; ExpiryDate is UTC RFC3339 or
// empty for no expiry.
type CreatePollRequest struct {
	Title      string   `json:"title"`
	Options    []string `json:"options"`
	ExpiryDate string   `json:"expiryDate,omitempty"`
}

// ActionResult is the backend's answer to vote/close/delete actions.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
