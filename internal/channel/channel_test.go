package channel

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// quizServer accepts websocket connections and hands them to the test.
type quizServer struct {
	*httptest.Server
	conns chan *websocket.Conn
}

func newQuizServer(t *testing.T) *quizServer {
	t.Helper()
	s := &quizServer{conns: make(chan *websocket.Conn, 8)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *quizServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *quizServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive a connection")
		return nil
	}
}

// flakyDialer succeeds for the first `healthy` dials and fails afterwards.
type flakyDialer struct {
	mu      sync.Mutex
	calls   int
	healthy int
}

func (d *flakyDialer) DialContext(ctx context.Context, url string, h http.Header) (*websocket.Conn, *http.Response, error) {
	d.mu.Lock()
	d.calls++
	n := d.calls
	d.mu.Unlock()

	if n > d.healthy {
		return nil, nil, errors.New("connection refused")
	}
	return websocket.DefaultDialer.DialContext(ctx, url, h)
}

func (d *flakyDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *flakyDialer) heal() {
	d.mu.Lock()
	d.healthy = 1 << 30
	d.mu.Unlock()
}

type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordedSleeps) snapshot() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func TestConnect_DispatchesInSubscriptionOrder(t *testing.T) {
	srv := newQuizServer(t)
	ch := New(Options{BaseURL: srv.wsURL()})
	defer ch.Disconnect()

	var mu sync.Mutex
	var calls []string
	done := make(chan struct{})

	ch.On(TypeAnswerResult, func(m Inbound) {
		mu.Lock()
		calls = append(calls, "first")
		mu.Unlock()
	})
	ch.On(TypeAnswerResult, func(m Inbound) {
		res, ok := m.(AnswerResult)
		assert.True(t, ok)
		assert.Equal(t, 7, res.QuestionID)
		assert.True(t, res.IsCorrect)
		mu.Lock()
		calls = append(calls, "second")
		mu.Unlock()
		close(done)
	})

	require.NoError(t, ch.Connect(context.Background(), "quiz"))
	assert.Equal(t, StateOpen, ch.State())

	server := srv.accept(t)
	defer server.Close()

	// Malformed payloads are dropped without reaching subscribers.
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"type":"mystery"}`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"answer_result","question_id":7,"is_correct":true,"correct_answer":1}`)))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("answer_result was not dispatched")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestSend_TransmitsTypedMessage(t *testing.T) {
	srv := newQuizServer(t)
	ch := New(Options{BaseURL: srv.wsURL()})
	defer ch.Disconnect()

	require.NoError(t, ch.Connect(context.Background(), "quiz"))
	server := srv.accept(t)
	defer server.Close()

	rt := 4
	require.NoError(t, ch.SubmitAnswer(3, 1, &rt))

	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := server.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"submit_answer","question_id":3,"answer_index":1,"response_time":4}`, string(data))
}

func TestSend_WhileDisconnected(t *testing.T) {
	ch := New(Options{BaseURL: "ws://127.0.0.1:1"})

	err := ch.Send(StartQuiz{QuizID: 1})
	assert.ErrorIs(t, err, ErrChannelUnavailable)
	assert.Equal(t, StateDisconnected, ch.State())
}

func TestConnect_FirstFailureIsNotRetried(t *testing.T) {
	dialer := &flakyDialer{healthy: 0}
	sleeps := &recordedSleeps{}
	ch := New(Options{BaseURL: "ws://example.invalid", Dialer: dialer, Sleep: sleeps.sleep})

	err := ch.Connect(context.Background(), "quiz")
	require.Error(t, err)
	assert.Equal(t, 1, dialer.Calls())
	assert.Empty(t, sleeps.snapshot())
	assert.Equal(t, StateDisconnected, ch.State())
}

func TestReconnect_StopsAfterMaxAttempts(t *testing.T) {
	srv := newQuizServer(t)
	dialer := &flakyDialer{healthy: 1}
	sleeps := &recordedSleeps{}

	var statesMu sync.Mutex
	var states []State
	ch := New(Options{
		BaseURL:     srv.wsURL(),
		BaseDelay:   100 * time.Millisecond,
		MaxAttempts: 4,
		Dialer:      dialer,
		Sleep:       sleeps.sleep,
		OnStateChange: func(s State) {
			statesMu.Lock()
			states = append(states, s)
			statesMu.Unlock()
		},
	})
	defer ch.Disconnect()

	require.NoError(t, ch.Connect(context.Background(), "quiz"))
	srv.accept(t).Close()

	require.Eventually(t, func() bool {
		return ch.State() == StateDisconnected && dialer.Calls() == 5
	}, 2*time.Second, 10*time.Millisecond)

	// One initial dial plus exactly MaxAttempts reconnects, with growing delays.
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		400 * time.Millisecond,
	}, sleeps.snapshot())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 5, dialer.Calls(), "no attempts after the cap")

	statesMu.Lock()
	assert.Equal(t, []State{StateConnecting, StateOpen, StateReconnecting, StateDisconnected}, states)
	statesMu.Unlock()

	assert.ErrorIs(t, ch.Send(GetQuestion{QuestionID: 1}), ErrChannelUnavailable)
}

func TestReconnect_ResumesDispatch(t *testing.T) {
	srv := newQuizServer(t)
	dialer := &flakyDialer{healthy: 1}
	ch := New(Options{BaseURL: srv.wsURL(), BaseDelay: 20 * time.Millisecond, MaxAttempts: 5, Dialer: dialer})
	defer ch.Disconnect()

	got := make(chan QuizStarted, 1)
	ch.On(TypeQuizStarted, func(m Inbound) { got <- m.(QuizStarted) })

	require.NoError(t, ch.Connect(context.Background(), "quiz"))
	first := srv.accept(t)

	// Two failures, then the server is reachable again.
	dialer.mu.Lock()
	dialer.healthy = 0
	dialer.mu.Unlock()
	go func() {
		for dialer.Calls() < 3 {
			time.Sleep(time.Millisecond)
		}
		dialer.heal()
	}()
	first.Close()

	second := srv.accept(t)
	defer second.Close()

	require.Eventually(t, func() bool { return ch.State() == StateOpen }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, second.WriteMessage(websocket.TextMessage, []byte(`{"type":"quiz_started","quiz_id":9}`)))

	select {
	case m := <-got:
		assert.Equal(t, 9, m.QuizID)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription lost across reconnect")
	}
}

func TestDisconnect_CancelsReconnectAndClearsHandlers(t *testing.T) {
	srv := newQuizServer(t)
	dialer := &flakyDialer{healthy: 1}
	ch := New(Options{BaseURL: srv.wsURL(), BaseDelay: time.Hour, MaxAttempts: 5, Dialer: dialer})

	ch.On(TypeQuestion, func(Inbound) {})
	require.NoError(t, ch.Connect(context.Background(), "quiz"))
	srv.accept(t).Close()

	require.Eventually(t, func() bool { return ch.State() == StateReconnecting }, 2*time.Second, 5*time.Millisecond)

	ch.Disconnect()
	ch.Disconnect()

	assert.Equal(t, StateDisconnected, ch.State())
	assert.Equal(t, 1, dialer.Calls(), "pending reconnect must not dial")

	ch.mu.Lock()
	assert.Empty(t, ch.handlers)
	ch.mu.Unlock()
}

func TestOff_RemovesOnlyThatHandler(t *testing.T) {
	ch := New(Options{})

	var hits []int
	a := ch.On(TypeError, func(Inbound) { hits = append(hits, 1) })
	ch.On(TypeError, func(Inbound) { hits = append(hits, 2) })
	ch.Off(a)

	ch.dispatch(ErrorMessage{Message: "boom"})
	assert.Equal(t, []int{2}, hits)
}

type recordingHandler struct {
	seen []MessageType
}

func (r *recordingHandler) QuizStarted(QuizStarted)   { r.seen = append(r.seen, TypeQuizStarted) }
func (r *recordingHandler) AnswerResult(AnswerResult) { r.seen = append(r.seen, TypeAnswerResult) }
func (r *recordingHandler) Question(QuestionMessage)  { r.seen = append(r.seen, TypeQuestion) }
func (r *recordingHandler) Error(ErrorMessage)        { r.seen = append(r.seen, TypeError) }

func TestSubscribe_RoutesEveryKind(t *testing.T) {
	ch := New(Options{})
	h := &recordingHandler{}
	subs := ch.Subscribe(h)
	require.Len(t, subs, 4)

	ch.dispatch(QuestionMessage{QuestionID: 1})
	ch.dispatch(ErrorMessage{})
	ch.dispatch(QuizStarted{})
	ch.dispatch(AnswerResult{})

	assert.Equal(t, []MessageType{TypeQuestion, TypeError, TypeQuizStarted, TypeAnswerResult}, h.seen)
}

// stallingConn stops accepting writes once stalled, as a peer that has
// stopped reading would, until the write deadline passes.
type stallingConn struct {
	net.Conn

	mu       sync.Mutex
	stalled  bool
	deadline time.Time
}

func (c *stallingConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	return c.Conn.SetWriteDeadline(t)
}

func (c *stallingConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	stalled, deadline := c.stalled, c.deadline
	c.mu.Unlock()

	if !stalled {
		return c.Conn.Write(b)
	}
	wait := 5 * time.Second
	if !deadline.IsZero() {
		wait = time.Until(deadline)
	}
	time.Sleep(wait)
	return 0, os.ErrDeadlineExceeded
}

func (c *stallingConn) stall() {
	c.mu.Lock()
	c.stalled = true
	c.mu.Unlock()
}

func TestSend_StalledTransportTimesOutAndReconnects(t *testing.T) {
	srv := newQuizServer(t)
	dialed := make(chan *stallingConn, 4)
	dialer := &websocket.Dialer{
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := (&net.Dialer{}).DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			sc := &stallingConn{Conn: conn}
			dialed <- sc
			return sc, nil
		},
	}
	sleeps := &recordedSleeps{}
	ch := New(Options{
		BaseURL:      srv.wsURL(),
		Dialer:       dialer,
		WriteTimeout: 50 * time.Millisecond,
		MaxAttempts:  1,
		Sleep:        sleeps.sleep,
	})
	defer ch.Disconnect()

	require.NoError(t, ch.Connect(context.Background(), "quiz"))
	first := srv.accept(t)
	defer first.Close()
	(<-dialed).stall()

	start := time.Now()
	err := ch.Send(StartQuiz{QuizID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	second := srv.accept(t)
	defer second.Close()
	require.Eventually(t, func() bool { return ch.State() == StateOpen }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, ch.Send(StartQuiz{QuizID: 2}))
	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := second.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"start_quiz","quiz_id":2}`, string(data))
}
