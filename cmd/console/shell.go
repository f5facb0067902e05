package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/pollmaster/console/internal/apierr"
	"github.com/pollmaster/console/internal/config"
	"github.com/pollmaster/console/internal/domain"
	"github.com/pollmaster/console/internal/session"
	"github.com/pollmaster/console/internal/version"
	"github.com/pollmaster/console/internal/views"
)

// Shell is the line-oriented host for the views: it routes commands, applies
// the route guard on every navigation and prompts for confirm-gated actions.
type Shell struct {
	cfg      *config.Config
	sessions *session.Manager
	api      views.PollAPI
	live     domain.LiveSubscriber
	clock    clockwork.Clock

	in    *bufio.Scanner
	lines chan string
	out   io.Writer

	// ctx is the run context, set once when the command loop starts. Reads
	// select on it so a shutdown signal interrupts a blocked prompt.
	ctx context.Context

	mu     sync.Mutex
	route  views.Route
	list   *views.ListView
	detail *views.DetailView
	form   *views.CreateForm
}

// NewShell wires the shell. The forced-logout hook lands every screen back on
// the login route, whichever request tripped it.
func NewShell(cfg *config.Config, sessions *session.Manager, api views.PollAPI, live domain.LiveSubscriber, clock clockwork.Clock, in io.Reader, out io.Writer) *Shell {
	s := &Shell{
		cfg:      cfg,
		sessions: sessions,
		api:      api,
		live:     live,
		clock:    clock,
		in:       bufio.NewScanner(in),
		lines:    make(chan string),
		out:      out,
		route:    views.RouteLogin,
		form:     views.NewCreateForm(api),
	}
	s.list = views.NewListView(api, clock, cfg.PageSize, cfg.SearchDebounce)

	sessions.SetOnForcedLogout(func(reason string) {
		s.mu.Lock()
		detail := s.detail
		s.detail = nil
		s.route = views.RouteLogin
		s.mu.Unlock()
		if detail != nil {
			detail.Teardown()
		}
		fmt.Fprintf(out, "\nSession expired (%s). Please log in again.\n", reason)
	})

	if sessions.Current() != nil {
		s.route = views.RouteDashboard
	}
	return s
}

// Confirm implements views.Confirmer with a terminal y/N prompt.
func (s *Shell) Confirm(prompt string) bool {
	fmt.Fprintf(s.out, "%s [y/N]: ", prompt)
	answer, ok := s.readLine()
	if !ok {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// readLine hands out the next input line, or reports false on EOF or when the
// run context is cancelled mid-read.
func (s *Shell) readLine() (string, bool) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case line, ok := <-s.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

// Run is the command loop. It returns on EOF, "quit" or context cancellation;
// cancellation interrupts even a prompt that is waiting for input.
func (s *Shell) Run(ctx context.Context) error {
	s.ctx = ctx
	go func() {
		defer close(s.lines)
		for s.in.Scan() {
			select {
			case s.lines <- s.in.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(s.out, "PollMaster console. Type 'help' for commands.")
	if sess := s.sessions.Current(); sess != nil {
		fmt.Fprintf(s.out, "Welcome back, %s.\n", sess.User.Name)
		s.showDashboard(ctx)
	}

	for {
		fmt.Fprint(s.out, "> ")
		raw, ok := s.readLine()
		if !ok {
			s.teardown()
			if ctx.Err() != nil {
				return nil
			}
			return s.in.Err()
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" || cmd == "exit" {
			s.teardown()
			return nil
		}
		s.dispatch(ctx, cmd, args)
	}
}

func (s *Shell) dispatch(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "help":
		s.printHelp()
	case "login":
		s.handleLogin(ctx)
	case "register":
		s.handleRegister(ctx)
	case "logout":
		s.teardown()
		s.sessions.Logout()
		s.setRoute(views.RouteLogin)
		fmt.Fprintln(s.out, "Logged out.")
	case "polls":
		s.handlePolls(ctx, strings.Join(args, " "))
	case "more":
		s.handleMore(ctx)
	case "open":
		s.handleOpen(ctx, args)
	case "vote":
		s.handleVote(ctx, args)
	case "close":
		s.handleClose(ctx)
	case "delete":
		s.handleDelete(ctx)
	case "create":
		s.handleCreate(ctx)
	case "profile":
		s.handleProfile(ctx)
	case "version":
		info := version.Get()
		fmt.Fprintf(s.out, "pollmaster console %s (%s, built %s, %s)\n", info.Version, info.Commit, info.BuildTime, info.GoVersion)
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type 'help'.\n", cmd)
	}
}

// navigate applies the route guard. A denial prints where the viewer landed
// instead and reports false.
func (s *Shell) navigate(route views.Route) bool {
	sess := s.sessions.Current()
	target := views.RedirectTarget(route, sess)
	s.setRoute(target)
	if target == route {
		return true
	}
	if sess == nil {
		fmt.Fprintln(s.out, "Please log in first.")
	} else {
		fmt.Fprintln(s.out, "That area is for admins; back to the dashboard.")
	}
	return false
}

func (s *Shell) setRoute(route views.Route) {
	s.mu.Lock()
	s.route = route
	s.mu.Unlock()
}

func (s *Shell) prompt(label string) (string, bool) {
	fmt.Fprintf(s.out, "%s: ", label)
	line, ok := s.readLine()
	if !ok {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (s *Shell) handleLogin(ctx context.Context) {
	email, ok := s.prompt("Email")
	if !ok {
		return
	}
	password, ok := s.prompt("Password")
	if !ok {
		return
	}

	sess, err := s.sessions.Login(ctx, email, password)
	if err != nil {
		if apierr.IsAuth(err) {
			fmt.Fprintln(s.out, "Invalid email or password.")
		} else {
			fmt.Fprintf(s.out, "Login failed: %v\n", err)
		}
		return
	}

	fmt.Fprintf(s.out, "Welcome, %s!\n", sess.User.Name)
	s.setRoute(views.RouteDashboard)
	s.showDashboard(ctx)
}

func (s *Shell) handleRegister(ctx context.Context) {
	name, ok := s.prompt("Name")
	if !ok {
		return
	}
	email, ok := s.prompt("Email")
	if !ok {
		return
	}
	password, ok := s.prompt("Password")
	if !ok {
		return
	}
	role, ok := s.prompt("Role (USER/ADMIN)")
	if !ok {
		return
	}

	if err := s.sessions.Register(ctx, name, email, password, strings.ToUpper(role)); err != nil {
		// Validation problems (e.g. duplicate email) belong to this form.
		fmt.Fprintf(s.out, "Registration failed: %s\n", apierr.UserMessage(err, err.Error()))
		return
	}
	fmt.Fprintln(s.out, "Registered. Please log in.")
	s.setRoute(views.RouteLogin)
}

func (s *Shell) handlePolls(ctx context.Context, search string) {
	if !s.navigate(views.RouteDashboard) {
		return
	}
	s.closeDetail()

	var err error
	if search == "" && s.list.Search() == "" {
		err = s.list.Load(ctx)
	} else {
		err = s.list.SetSearchNow(ctx, search)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Could not load polls: %s\n", s.list.Err())
		return
	}
	s.renderList()
}

func (s *Shell) handleMore(ctx context.Context) {
	if !s.navigate(views.RouteDashboard) {
		return
	}
	if !s.list.HasMore() {
		fmt.Fprintln(s.out, "No more polls.")
		return
	}
	if err := s.list.LoadMore(ctx); err != nil {
		fmt.Fprintf(s.out, "Could not load more polls: %s\n", s.list.Err())
		return
	}
	s.renderList()
}

func (s *Shell) handleOpen(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: open <poll-id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintln(s.out, "Poll IDs are numeric.")
		return
	}
	if !s.navigate(views.RoutePollDetail) {
		return
	}

	s.closeDetail()
	detail := views.NewDetailView(s.api, s.live, s, id)
	if err := detail.Load(ctx); err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			fmt.Fprintln(s.out, "Poll not found.")
		} else {
			_, _, msg := detail.Snapshot()
			fmt.Fprintf(s.out, "Could not load poll: %s\n", msg)
		}
		return
	}

	s.mu.Lock()
	s.detail = detail
	s.mu.Unlock()
	s.renderDetail()
}

func (s *Shell) handleVote(ctx context.Context, args []string) {
	detail := s.currentDetail()
	if detail == nil {
		fmt.Fprintln(s.out, "Open a poll first.")
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: vote <option-number>")
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(s.out, "Vote by option number as rendered.")
		return
	}

	poll, _, _ := detail.Snapshot()
	if poll == nil || idx < 1 || idx > len(poll.Options) {
		fmt.Fprintln(s.out, "No such option.")
		return
	}

	switch err := detail.Vote(ctx, poll.Options[idx-1].ID); {
	case err == nil:
		fmt.Fprintln(s.out, "Thank you for voting! Results update in real-time.")
	case errors.Is(err, domain.ErrPollClosed):
		fmt.Fprintln(s.out, "This poll is closed for voting.")
	case errors.Is(err, domain.ErrAlreadyVoted):
		fmt.Fprintln(s.out, "You already voted on this poll.")
	default:
		_, _, msg := detail.Snapshot()
		fmt.Fprintf(s.out, "Vote failed: %s\n", msg)
	}
	s.renderDetail()
}

func (s *Shell) handleClose(ctx context.Context) {
	detail := s.currentDetail()
	if detail == nil {
		fmt.Fprintln(s.out, "Open a poll first.")
		return
	}
	if !s.sessions.IsAdmin() {
		fmt.Fprintln(s.out, "Closing polls is an admin action.")
		return
	}
	if err := detail.ClosePoll(ctx); err != nil {
		_, _, msg := detail.Snapshot()
		fmt.Fprintf(s.out, "Close failed: %s\n", msg)
		return
	}
	s.renderDetail()
}

func (s *Shell) handleDelete(ctx context.Context) {
	detail := s.currentDetail()
	if detail == nil {
		fmt.Fprintln(s.out, "Open a poll first.")
		return
	}
	if !s.sessions.IsAdmin() {
		fmt.Fprintln(s.out, "Deleting polls is an admin action.")
		return
	}

	deleted, err := detail.DeletePoll(ctx)
	if err != nil {
		_, _, msg := detail.Snapshot()
		fmt.Fprintf(s.out, "Delete failed: %s\n", msg)
		return
	}
	if deleted {
		s.closeDetail()
		fmt.Fprintln(s.out, "Poll deleted.")
		s.setRoute(views.RouteDashboard)
	}
}

func (s *Shell) handleCreate(ctx context.Context) {
	if !s.navigate(views.RouteCreatePoll) {
		return
	}

	title, ok := s.prompt("Title")
	if !ok {
		return
	}

	fmt.Fprintln(s.out, "Enter options, one per line; finish with an empty line.")
	var options []string
	for {
		opt, ok := s.prompt(fmt.Sprintf("Option %d", len(options)+1))
		if !ok || opt == "" {
			break
		}
		options = append(options, opt)
	}

	expiry, ok := s.prompt("Expiry (YYYY-MM-DD HH:MM, empty for none)")
	if !ok {
		return
	}

	input := views.CreateInput{Title: title, Options: options, Expiry: expiry}
	poll, err := s.form.Submit(ctx, input, s.clock.Now())
	if err != nil {
		fmt.Fprintf(s.out, "Could not create poll: %s\n", apierr.UserMessage(err, err.Error()))
		return
	}

	fmt.Fprintf(s.out, "Created poll #%d: %s\n", poll.ID, poll.Title)
	s.setRoute(views.RouteDashboard)
	s.showDashboard(ctx)
}

func (s *Shell) handleProfile(ctx context.Context) {
	if !s.navigate(views.RouteProfile) {
		return
	}

	profile := views.NewProfileView(s.api)
	if err := profile.Load(ctx); err != nil {
		fmt.Fprintf(s.out, "Could not load profile: %s\n", profile.Err())
		return
	}
	s.renderProfile(profile.History())
}

func (s *Shell) showDashboard(ctx context.Context) {
	if err := s.list.Load(ctx); err != nil {
		fmt.Fprintf(s.out, "Could not load polls: %s\n", s.list.Err())
		return
	}
	s.renderList()
}

func (s *Shell) currentDetail() *views.DetailView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detail
}

func (s *Shell) closeDetail() {
	s.mu.Lock()
	detail := s.detail
	s.detail = nil
	s.mu.Unlock()
	if detail != nil {
		detail.Teardown()
	}
}

func (s *Shell) teardown() {
	s.closeDetail()
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `Commands:
  login              log in with email and password
  register           create an account
  logout             log out and clear the stored session
  polls [search]     list polls, optionally filtered by title
  more               load the next page of polls
  open <id>          open one poll (live tallies while open)
  vote <n>           vote for option n of the open poll
  close              close the open poll for voting (admin)
  delete             delete the open poll permanently (admin)
  create             create a new poll (admin)
  profile            show your created polls and voting history
  version            show build information
  quit               exit
`)
}
