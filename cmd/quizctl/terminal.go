package main

import (
	"fmt"
	"io"
	"sync"

	"roadsafe-quiz/internal/quiz"
)

// terminal renders session states as plain text. It only prints when
// something the learner needs to see has changed, so countdown ticks stay
// quiet apart from the final warning.
type terminal struct {
	out io.Writer

	mu       sync.Mutex
	position int
	phase    quiz.Phase
	warned   bool
	shown    bool

	done     chan quiz.State
	doneOnce sync.Once
}

const warnAt = 5

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out, done: make(chan quiz.State, 1)}
}

func (t *terminal) SessionChanged(_ string, st quiz.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := !t.shown || st.Position != t.position || st.Phase != t.phase
	t.shown = true
	t.position = st.Position
	t.phase = st.Phase

	switch st.Phase {
	case quiz.PhaseInProgress:
		if changed {
			t.warned = false
			t.question(st)
			return
		}
		if !t.warned && st.Remaining <= warnAt && st.Remaining < st.TimeLimit {
			t.warned = true
			fmt.Fprintf(t.out, "  ⏱  %d left\n", st.Remaining)
		}
	case quiz.PhaseRevealed:
		if changed {
			t.verdict(st)
		}
	case quiz.PhaseFinished:
		if changed {
			t.summary(st)
			t.finish(st)
		}
	}
}

func (t *terminal) SessionClosed(string) {
	t.finish(quiz.State{})
}

func (t *terminal) finish(st quiz.State) {
	t.doneOnce.Do(func() {
		t.done <- st
		close(t.done)
	})
}

func (t *terminal) question(st quiz.State) {
	q := st.Question
	if q == nil {
		return
	}
	fmt.Fprintf(t.out, "\nQuestion %d of %d (%d pts, %d to answer)\n", st.Position+1, st.Total, q.Points, st.Remaining)
	fmt.Fprintf(t.out, "%s\n", q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprint(t.out, "> ")
}

func (t *terminal) verdict(st quiz.State) {
	r := st.LastResult
	q := st.Question
	if r == nil || q == nil {
		return
	}

	switch {
	case r.Correct:
		fmt.Fprintf(t.out, "✓ Correct! +%d\n", r.Points)
	case r.TimedOut && r.Selected == nil:
		fmt.Fprintln(t.out, "\n✗ Time's up.")
	default:
		fmt.Fprintln(t.out, "✗ Not quite.")
	}
	if !r.Correct && q.CorrectIndex != nil {
		fmt.Fprintf(t.out, "  The answer was %d) %s\n", *q.CorrectIndex+1, q.Options[*q.CorrectIndex])
	}
	if q.Explanation != "" {
		fmt.Fprintf(t.out, "  %s\n", q.Explanation)
	}
	fmt.Fprintln(t.out, "Press Enter to continue.")
}

func (t *terminal) summary(st quiz.State) {
	fmt.Fprintf(t.out, "\nFinished %s: %d/%d points, %d of %d correct.\n",
		st.QuizTitle, st.Score, st.MaxScore, st.CorrectCount, st.Total)
}
