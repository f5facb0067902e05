package domain

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPollNotFound     = errors.New("poll not found")
	ErrAlreadyVoted     = errors.New("already voted on this poll")
	ErrPollClosed       = errors.New("poll is closed for voting")
)
