package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newPoll(counts ...int) *Poll {
	p := &Poll{ID: 1, Title: "Favorite language?", Status: PollStatusActive, CreatedAt: time.Now()}
	for i, c := range counts {
		p.Options = append(p.Options, Option{ID: int64(i + 1), OptionText: "option", VoteCount: c})
	}
	return p
}

func TestPoll_TotalVotes(t *testing.T) {
	assert.Equal(t, 0, newPoll().TotalVotes())
	assert.Equal(t, 0, newPoll(0, 0, 0).TotalVotes())
	assert.Equal(t, 10, newPoll(3, 7).TotalVotes())
}

func TestPoll_PercentagesSumToHundred(t *testing.T) {
	p := newPoll(1, 2, 3)
	shares := p.Percentages()

	sum := 0.0
	for _, share := range shares {
		sum += share
	}
	assert.InDelta(t, 100.0, sum, 0.001)
	assert.InDelta(t, 100.0/6, shares[1], 0.001)
	assert.InDelta(t, 50.0, shares[3], 0.001)
}

func TestPoll_PercentagesZeroTotal(t *testing.T) {
	// No division by zero: every share is exactly zero.
	shares := newPoll(0, 0).Percentages()
	assert.Equal(t, 0.0, shares[1])
	assert.Equal(t, 0.0, shares[2])
}

func TestPoll_Closed(t *testing.T) {
	p := newPoll(1)
	assert.False(t, p.Closed())
	p.Status = PollStatusClosed
	assert.True(t, p.Closed())
}

func TestPollPage_HasMore(t *testing.T) {
	assert.True(t, (&PollPage{Number: 0, TotalPages: 2}).HasMore())
	assert.False(t, (&PollPage{Number: 1, TotalPages: 2}).HasMore())
	assert.False(t, (&PollPage{Number: 0, TotalPages: 1}).HasMore())
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: "ROLE_ADMIN"}).IsAdmin())
	assert.True(t, (&User{Role: "ADMIN"}).IsAdmin())
	assert.False(t, (&User{Role: "ROLE_USER"}).IsAdmin())
	assert.False(t, (&User{Role: "USER"}).IsAdmin())
	assert.False(t, (&User{}).IsAdmin())
}
