// Package views holds the client-side view state: the poll list with debounced
// search, the poll detail voting flow with live tally merge, the creation form,
// the profile history and the route guard.
//
// Views serialize their own state behind a mutex because HTTP completions and
// live updates arrive on different goroutines. Each view owns its fetched data;
// the session is the only state shared across views.
package views
