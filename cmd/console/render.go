package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pollmaster/console/internal/domain"
	"github.com/pollmaster/console/internal/views"
)

const barWidth = 24

func (s *Shell) renderList() {
	items := s.list.Items()
	stats := s.list.Stats()

	if term := s.list.Search(); term != "" {
		fmt.Fprintf(s.out, "Results for %q - %d poll(s) found\n", term, s.list.TotalElements())
	}
	if len(items) == 0 {
		fmt.Fprintln(s.out, "No polls here yet.")
		return
	}

	tw := tabwriter.NewWriter(s.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tVOTES\tTITLE\tBY")
	for i := range items {
		p := &items[i]
		creator := "anonymous"
		if p.CreatedBy != nil {
			creator = p.CreatedBy.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", p.ID, p.Status, p.TotalVotes(), p.Title, creator)
	}
	tw.Flush()

	fmt.Fprintf(s.out, "%d active, %d closed, %d votes on this page", stats.Active, stats.Closed, stats.TotalVotes)
	if s.list.HasMore() {
		fmt.Fprint(s.out, " - type 'more' for the next page")
	}
	fmt.Fprintln(s.out)
}

func (s *Shell) renderDetail() {
	detail := s.currentDetail()
	if detail == nil {
		return
	}
	poll, phase, errMsg := detail.Snapshot()
	if poll == nil {
		return
	}

	fmt.Fprintf(s.out, "\n#%d %s [%s]", poll.ID, poll.Title, poll.Status)
	if poll.CreatedBy != nil {
		fmt.Fprintf(s.out, " by %s", poll.CreatedBy.Name)
	}
	fmt.Fprintln(s.out)
	if poll.ExpiryDate != nil && !poll.Closed() {
		fmt.Fprintf(s.out, "Closes %s\n", poll.ExpiryDate.Local().Format(time.RFC1123))
	}

	shares := poll.Percentages()
	for i := range poll.Options {
		opt := &poll.Options[i]
		share := shares[opt.ID]
		filled := int(share / 100 * barWidth)
		bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
		fmt.Fprintf(s.out, "  %d) %-30s %s %3.0f%% (%d votes)\n", i+1, opt.OptionText, bar, share, opt.VoteCount)
	}
	fmt.Fprintf(s.out, "Total votes: %d\n", poll.TotalVotes())

	switch {
	case poll.Closed():
		fmt.Fprintln(s.out, "This poll is closed; options are disabled.")
	case phase == views.PhaseVoted:
		fmt.Fprintln(s.out, "You voted on this poll; results update live while it stays open.")
	case phase == views.PhaseVoting:
		fmt.Fprintln(s.out, "Casting your vote...")
	default:
		fmt.Fprintln(s.out, "Vote with: vote <option-number>")
	}
	if errMsg != "" {
		fmt.Fprintf(s.out, "! %s\n", errMsg)
	}
}

func (s *Shell) renderProfile(history *domain.UserHistory) {
	if history == nil {
		return
	}
	fmt.Fprintf(s.out, "%s <%s> - %s\n", history.Name, history.Email, roleLabel(history.Role))

	if len(history.CreatedPolls) > 0 {
		fmt.Fprintf(s.out, "\nCreated polls (%d):\n", len(history.CreatedPolls))
		for i := range history.CreatedPolls {
			p := &history.CreatedPolls[i]
			fmt.Fprintf(s.out, "  #%d %s [%s] - %d votes\n", p.ID, p.Title, p.Status, p.TotalVotes())
		}
	}
	if len(history.VotedPolls) > 0 {
		fmt.Fprintf(s.out, "\nVoted polls (%d):\n", len(history.VotedPolls))
		for i := range history.VotedPolls {
			v := &history.VotedPolls[i]
			fmt.Fprintf(s.out, "  #%d %s - you picked %q\n", v.Poll.ID, v.Poll.Title, v.SelectedOptionText)
		}
	}
	if len(history.CreatedPolls) == 0 && len(history.VotedPolls) == 0 {
		fmt.Fprintln(s.out, "No activity yet.")
	}
}

func roleLabel(role string) string {
	if role == domain.RoleAdmin || strings.TrimPrefix(role, "ROLE_") == "ADMIN" {
		return "Poll Creator"
	}
	return "Voter Enthusiast"
}
