// Package live implements the push channel for poll tally updates.
//
// Each subscription dials the backend's websocket endpoint, subscribes to the
// poll's topic and delivers absolute vote-count overwrites until closed. The
// channel is a best-effort enhancement: every failure here is non-fatal and
// the views keep working from fetched data.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/pollmaster/console/internal/apierr"
	"github.com/pollmaster/console/internal/domain"
	"github.com/pollmaster/console/internal/retry"
)

const (
	writeDeadline    = 5 * time.Second
	pingInterval     = 30 * time.Second
	pongDeadline     = 60 * time.Second
	dialTimeout      = 10 * time.Second
	dialAttempts     = 3
	dialBackoff      = 500 * time.Millisecond
	updateBufferSize = 16
	maxMessageSize   = 4096
)

// Subscriber opens live-update subscriptions against one websocket endpoint.
type Subscriber struct {
	url    string
	clock  clockwork.Clock
	dialer *websocket.Dialer
}

// NewSubscriber creates a subscriber for the given ws:// or wss:// URL.
func NewSubscriber(url string, clock clockwork.Clock) *Subscriber {
	return &Subscriber{
		url:    url,
		clock:  clock,
		dialer: &websocket.Dialer{HandshakeTimeout: dialTimeout},
	}
}

// subscribeFrame is the client's first message on a fresh connection.
type subscribeFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// updateFrame is what the backend pushes. Topic is optional: a bare
// {optionId, voteCount} payload is accepted since the connection only ever
// subscribes to one topic.
type updateFrame struct {
	Topic     string `json:"topic"`
	OptionID  *int64 `json:"optionId"`
	VoteCount int    `json:"voteCount"`
}

// Subscribe dials the endpoint and subscribes to polls/{id}. The returned
// subscription delivers updates until Close is called or the transport fails;
// either way the Updates channel is closed.
func (s *Subscriber) Subscribe(ctx context.Context, pollID int64) (domain.LiveSubscription, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, &apierr.TransportError{Op: "live subscribe", Err: err}
	}

	topic := "polls/" + strconv.FormatInt(pollID, 10)
	conn.SetWriteDeadline(s.clock.Now().Add(writeDeadline))
	if err := conn.WriteJSON(subscribeFrame{Action: "subscribe", Topic: topic}); err != nil {
		_ = conn.Close()
		return nil, &apierr.TransportError{Op: "live subscribe", Err: fmt.Errorf("failed to send subscribe frame: %w", err)}
	}

	sub := &subscription{
		conn:    conn,
		clock:   s.clock,
		topic:   topic,
		updates: make(chan domain.VoteUpdate, updateBufferSize),
		done:    make(chan struct{}),
	}
	go sub.readLoop()
	sub.pingWG.Add(1)
	go sub.pingLoop()

	slog.Debug("Live subscription opened", "topic", topic)
	return sub, nil
}

// dial connects with a short backoff. A broker restart is the common failure
// here and a second attempt usually lands.
func (s *Subscriber) dial(ctx context.Context) (*websocket.Conn, error) {
	policy := retry.Policy{
		MaxAttempts:    dialAttempts,
		InitialBackoff: dialBackoff,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Debug("Live dial failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
	retryable := func(err error) bool {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return retry.Do(ctx, s.clock, policy, retryable, func() (*websocket.Conn, error) {
		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		return conn, err
	})
}

type subscription struct {
	conn      *websocket.Conn
	clock     clockwork.Clock
	topic     string
	updates   chan domain.VoteUpdate
	done      chan struct{}
	closeOnce sync.Once
	pingWG    sync.WaitGroup
}

func (s *subscription) Updates() <-chan domain.VoteUpdate {
	return s.updates
}

// Close tears the subscription down. Idempotent; safe to call after the
// transport already failed.
func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		// The connection allows only one concurrent writer, so wait for the
		// ping loop to exit before sending the close frame.
		s.pingWG.Wait()

		// Best-effort close frame so the broker can drop the topic promptly.
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		s.conn.SetWriteDeadline(s.clock.Now().Add(writeDeadline))
		_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
		_ = s.conn.Close()
	})
}

// readLoop is the only writer of the updates channel and the only closer.
// It exits when the connection dies, including the death caused by Close.
func (s *subscription) readLoop() {
	defer close(s.updates)

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(s.clock.Now().Add(pongDeadline))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(s.clock.Now().Add(pongDeadline))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// Deliberate close, nothing to report.
			default:
				slog.Debug("Live subscription lost", "topic", s.topic, "error", err)
			}
			return
		}

		var frame updateFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.OptionID == nil {
			slog.Debug("Skipping malformed live frame", "topic", s.topic, "error", err)
			continue
		}
		if frame.Topic != "" && frame.Topic != s.topic {
			continue
		}

		update := domain.VoteUpdate{OptionID: *frame.OptionID, VoteCount: frame.VoteCount}
		select {
		case s.updates <- update:
		case <-s.done:
			return
		default:
			// Consumer is behind; overwrites are absolute so dropping one is safe.
			slog.Debug("Dropping live update for slow consumer", "topic", s.topic)
		}
	}
}

// pingLoop keeps the connection alive. A failed ping closes the connection,
// which unblocks readLoop and ends the subscription.
func (s *subscription) pingLoop() {
	defer s.pingWG.Done()

	ticker := s.clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			s.conn.SetWriteDeadline(s.clock.Now().Add(writeDeadline))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}
