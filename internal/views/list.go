package views

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pollmaster/console/internal/apierr"
	"github.com/pollmaster/console/internal/domain"
)

// ListStats are display-only aggregates derived from the loaded page(s), not
// authoritative server-side totals.
type ListStats struct {
	Active     int
	Closed     int
	TotalVotes int
}

// ListView is the paginated, search-filtered poll list. Search input is
// debounced so a fetch only fires after a quiet period, and every fetch is
// sequence-tagged so a stale response can never clobber a newer one.
type ListView struct {
	api      PollAPI
	clock    clockwork.Clock
	pageSize int
	debounce time.Duration

	mu            sync.Mutex
	items         []domain.Poll
	page          int
	totalPages    int
	totalElements int
	search        string
	seq           uint64
	searchTimer   clockwork.Timer
	errMsg        string
}

// NewListView creates the list view. Nothing is fetched until Load.
func NewListView(api PollAPI, clock clockwork.Clock, pageSize int, debounce time.Duration) *ListView {
	return &ListView{
		api:        api,
		clock:      clock,
		pageSize:   pageSize,
		debounce:   debounce,
		totalPages: 1,
	}
}

// Load fetches page zero for the current search term, replacing whatever is
// rendered.
func (v *ListView) Load(ctx context.Context) error {
	v.mu.Lock()
	search := v.search
	v.mu.Unlock()
	return v.fetch(ctx, 0, search, false)
}

// LoadMore appends the next page to the already-rendered list. It is a no-op
// when the last page is already loaded.
func (v *ListView) LoadMore(ctx context.Context) error {
	v.mu.Lock()
	if v.page+1 >= v.totalPages {
		v.mu.Unlock()
		return nil
	}
	next := v.page + 1
	search := v.search
	v.mu.Unlock()
	return v.fetch(ctx, next, search, true)
}

// SetSearch records a new search term and schedules a page-zero fetch after
// the quiet period. Each keystroke resets the timer, so only the final term
// of a burst reaches the backend.
func (v *ListView) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.search = term
	if v.searchTimer != nil {
		v.searchTimer.Stop()
	}
	v.searchTimer = v.clock.AfterFunc(v.debounce, func() {
		v.mu.Lock()
		current := v.search
		v.mu.Unlock()
		if err := v.fetch(context.Background(), 0, current, false); err != nil {
			slog.Debug("Debounced search fetch failed", "search", current, "error", err)
		}
	})
}

// SetSearchNow replaces the search term and fetches page zero immediately,
// bypassing the debounce. Used by line-oriented hosts where the term arrives
// whole rather than keystroke by keystroke.
func (v *ListView) SetSearchNow(ctx context.Context, term string) error {
	v.mu.Lock()
	v.search = term
	if v.searchTimer != nil {
		v.searchTimer.Stop()
		v.searchTimer = nil
	}
	v.mu.Unlock()
	return v.fetch(ctx, 0, term, false)
}

// fetch issues one page request. The response is applied only if no newer
// request has been issued since; overlapping fetches can complete in any order
// without the view ever showing superseded results.
func (v *ListView) fetch(ctx context.Context, page int, search string, appendItems bool) error {
	v.mu.Lock()
	v.seq++
	mySeq := v.seq
	v.mu.Unlock()

	resp, err := v.api.ListPolls(ctx, page, v.pageSize, search)

	v.mu.Lock()
	defer v.mu.Unlock()

	if mySeq != v.seq {
		// A newer fetch was issued while this one was in flight; its result
		// wins no matter which response arrived first.
		return nil
	}

	if err != nil {
		// Keep the previously rendered items; the error renders inline.
		v.errMsg = apierr.UserMessage(err, "failed to load polls")
		return err
	}

	v.errMsg = ""
	if appendItems {
		v.items = append(v.items, resp.Items...)
	} else {
		v.items = resp.Items
	}
	v.page = resp.Number
	v.totalPages = resp.TotalPages
	v.totalElements = resp.TotalElements
	return nil
}

// Items returns the loaded polls in render order.
func (v *ListView) Items() []domain.Poll {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.Poll, len(v.items))
	copy(out, v.items)
	return out
}

// Stats derives active/closed counts and the aggregate vote total from the
// loaded items only.
func (v *ListView) Stats() ListStats {
	v.mu.Lock()
	defer v.mu.Unlock()

	var stats ListStats
	for i := range v.items {
		if v.items[i].Closed() {
			stats.Closed++
		} else {
			stats.Active++
		}
		stats.TotalVotes += v.items[i].TotalVotes()
	}
	return stats
}

// HasMore reports whether another page can be loaded.
func (v *ListView) HasMore() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page+1 < v.totalPages
}

// TotalElements is the server-reported total matching the current search.
func (v *ListView) TotalElements() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totalElements
}

// Search returns the current search term.
func (v *ListView) Search() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.search
}

// Err returns the inline error message, empty when the last fetch succeeded.
func (v *ListView) Err() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}
