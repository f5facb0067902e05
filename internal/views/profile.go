package views

import (
	"context"
	"sync"

	"github.com/pollmaster/console/internal/apierr"
	"github.com/pollmaster/console/internal/domain"
)

// ProfileView is the viewer's participation history: polls they created and
// polls they voted on, with the option they picked.
type ProfileView struct {
	api PollAPI

	mu      sync.Mutex
	history *domain.UserHistory
	errMsg  string
}

// NewProfileView creates the view.
func NewProfileView(api PollAPI) *ProfileView {
	return &ProfileView{api: api}
}

// Load fetches the history. A failure leaves the previous data in place and
// renders an inline error rather than a crash.
func (v *ProfileView) Load(ctx context.Context) error {
	history, err := v.api.History(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.errMsg = apierr.UserMessage(err, "failed to load profile history")
		return err
	}
	v.history = history
	v.errMsg = ""
	return nil
}

// History returns the loaded record, nil before the first successful Load.
func (v *ProfileView) History() *domain.UserHistory {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.history
}

// Err returns the inline error message, empty after a successful Load.
func (v *ProfileView) Err() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}
