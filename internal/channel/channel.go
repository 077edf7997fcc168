package channel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roadsafe-quiz/internal/auth"
)

const writeWait = 10 * time.Second

var (
	ErrChannelUnavailable = errors.New("message channel is not connected")
	ErrConnectInProgress  = errors.New("message channel is already connecting")
	ErrChannelClosed      = errors.New("message channel was disconnected")
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Dialer is satisfied by *websocket.Dialer.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

type Handler func(Inbound)

// Subscription identifies one On registration for Off.
type Subscription struct {
	typ MessageType
	id  uint64
}

type subscriber struct {
	id uint64
	fn Handler
}

type Options struct {
	BaseURL     string
	BaseDelay   time.Duration
	MaxAttempts int
	Dialer      Dialer
	Auth        auth.Context

	// WriteTimeout bounds each Send. A write that times out drops the
	// transport, which then reconnects like any other unexpected closure.
	WriteTimeout time.Duration

	// Sleep waits between reconnect attempts; it must return early with an
	// error once ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnStateChange is called outside the channel lock after every transition.
	OnStateChange func(State)
}

// Channel is a single logical duplex connection that redials on unexpected
// closure. Inbound messages are dispatched from one goroutine at a time.
type Channel struct {
	opts Options

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	cancel   context.CancelFunc
	endpoint string
	handlers map[MessageType][]subscriber
	nextID   uint64

	writeMu sync.Mutex
}

func New(opts Options) *Channel {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = writeWait
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Channel{
		opts:     opts,
		handlers: make(map[MessageType][]subscriber),
	}
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) url() string {
	if c.endpoint == "" {
		return c.opts.BaseURL
	}
	return c.opts.BaseURL + "/" + c.endpoint
}

// Connect dials BaseURL/endpoint and returns once the transport is open.
// A failed first dial is returned as is; retrying is up to the caller.
func (c *Channel) Connect(ctx context.Context, endpoint string) error {
	c.mu.Lock()
	switch c.state {
	case StateOpen:
		c.mu.Unlock()
		return nil
	case StateConnecting, StateReconnecting:
		c.mu.Unlock()
		return ErrConnectInProgress
	}
	c.state = StateConnecting
	c.endpoint = endpoint
	url := c.url()
	c.mu.Unlock()
	c.notify(StateConnecting)

	conn, _, err := c.opts.Dialer.DialContext(ctx, url, c.opts.Auth.Header())
	if err != nil {
		c.mu.Lock()
		if c.state == StateConnecting {
			c.state = StateDisconnected
		}
		c.mu.Unlock()
		c.notify(StateDisconnected)
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		c.mu.Unlock()
		conn.Close()
		return ErrChannelClosed
	}
	runCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.cancel = cancel
	c.state = StateOpen
	c.mu.Unlock()
	c.notify(StateOpen)

	log.Printf("Message channel connected: %s", url)
	go c.run(runCtx, conn)
	return nil
}

// run owns the read side for the lifetime of one Connect call, including
// any reconnects it performs.
func (c *Channel) run(ctx context.Context, conn *websocket.Conn) {
	for conn != nil {
		c.readLoop(conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Printf("Message channel closed unexpectedly")
		conn = c.reconnect(ctx)
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := Decode(data)
		if err != nil {
			log.Printf("Dropping inbound message: %v", err)
			continue
		}
		c.dispatch(msg)
	}
}

// reconnect retries with a linear backoff of BaseDelay × attempt. It returns
// nil once attempts are exhausted or the channel is disconnected.
func (c *Channel) reconnect(ctx context.Context) *websocket.Conn {
	c.mu.Lock()
	c.conn = nil
	c.state = StateReconnecting
	url := c.url()
	c.mu.Unlock()
	c.notify(StateReconnecting)

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		delay := c.opts.BaseDelay * time.Duration(attempt)
		log.Printf("Attempting to reconnect (%d/%d) in %v", attempt, c.opts.MaxAttempts, delay)

		if err := c.opts.Sleep(ctx, delay); err != nil {
			return nil
		}

		conn, _, err := c.opts.Dialer.DialContext(ctx, url, c.opts.Auth.Header())
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("Reconnection attempt %d failed: %v", attempt, err)
			continue
		}

		c.mu.Lock()
		if ctx.Err() != nil {
			c.mu.Unlock()
			conn.Close()
			return nil
		}
		c.conn = conn
		c.state = StateOpen
		c.mu.Unlock()
		c.notify(StateOpen)

		log.Printf("Message channel reconnected after %d attempt(s)", attempt)
		return conn
	}

	log.Printf("Max reconnection attempts reached (%d)", c.opts.MaxAttempts)

	c.mu.Lock()
	exhausted := ctx.Err() == nil
	if exhausted {
		c.state = StateDisconnected
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
	}
	c.mu.Unlock()
	if exhausted {
		c.notify(StateDisconnected)
	}
	return nil
}

func (c *Channel) dispatch(msg Inbound) {
	c.mu.Lock()
	subs := append([]subscriber(nil), c.handlers[msg.Type()]...)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(msg)
	}
}

// Send transmits msg if the channel is open. Nothing is queued: while the
// channel is down the call logs and returns ErrChannelUnavailable.
func (c *Channel) Send(msg Outbound) error {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		log.Printf("Message channel is not connected, dropping %s", msg.Type())
		return ErrChannelUnavailable
	}

	data, err := Encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		// gorilla fails every later write on this conn; closing it hands
		// recovery to the read side.
		conn.Close()
		return fmt.Errorf("failed to send %s: %w", msg.Type(), err)
	}
	return nil
}

// On registers h for messages of type t. Handlers for one type run in
// registration order.
func (c *Channel) On(t MessageType, h Handler) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	c.handlers[t] = append(c.handlers[t], subscriber{id: c.nextID, fn: h})
	return Subscription{typ: t, id: c.nextID}
}

func (c *Channel) Off(s Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := c.handlers[s.typ]
	for i, sub := range subs {
		if sub.id == s.id {
			c.handlers[s.typ] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(c.handlers[s.typ]) == 0 {
		delete(c.handlers, s.typ)
	}
}

// Subscribe routes every inbound kind to h.
func (c *Channel) Subscribe(h InboundHandler) []Subscription {
	dispatch := func(msg Inbound) { Dispatch(msg, h) }
	return []Subscription{
		c.On(TypeQuizStarted, dispatch),
		c.On(TypeAnswerResult, dispatch),
		c.On(TypeQuestion, dispatch),
		c.On(TypeError, dispatch),
	}
}

// Disconnect closes the transport, stops any pending reconnect and drops
// every subscription. Calling it again is harmless.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	conn := c.conn
	c.conn = nil
	c.handlers = make(map[MessageType][]subscriber)
	changed := c.state != StateDisconnected
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}
	if changed {
		c.notify(StateDisconnected)
	}
}

func (c *Channel) StartQuiz(quizID int) error {
	return c.Send(StartQuiz{QuizID: quizID})
}

func (c *Channel) SubmitAnswer(questionID, answerIndex int, responseTime *int) error {
	return c.Send(SubmitAnswer{QuestionID: questionID, AnswerIndex: answerIndex, ResponseTime: responseTime})
}

func (c *Channel) GetQuestion(questionID int) error {
	return c.Send(GetQuestion{QuestionID: questionID})
}

func (c *Channel) notify(s State) {
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(s)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
