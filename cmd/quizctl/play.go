package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/cache"
	"roadsafe-quiz/internal/channel"
	"roadsafe-quiz/internal/quiz"
	"roadsafe-quiz/internal/session"
	"roadsafe-quiz/internal/worker"
)

var playCmd = &cobra.Command{
	Use:   "play <quiz-id>",
	Short: "Play a quiz, answering by option number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quizID, err := strconv.Atoi(args[0])
		if err != nil || quizID <= 0 {
			return fmt.Errorf("invalid quiz id %q", args[0])
		}
		overChannel, _ := cmd.Flags().GetBool("channel")

		ac, err := learner(cmd)
		if err != nil {
			return err
		}
		api, err := apiClient(cmd)
		if err != nil {
			return err
		}

		submissions := worker.NewPool(api, worker.Options{Workers: 1})
		submissions.Start()
		defer submissions.Stop()

		out := newTerminal(cmd.OutOrStdout())
		manager := session.NewManager(
			cache.NewCachedSource(api, cache.NewMemoryQuizCache(cfg.CacheTTL(), 0)),
			session.Options{
				TimeLimit:   cfg.QuestionTimeLimit,
				TimerTick:   cfg.TimerTick(),
				IdleTimeout: cfg.SessionIdleTimeout(),
				Submissions: submissions,
				Channels: session.DialChannels(channel.Options{
					BaseURL:      cfg.WSURL,
					BaseDelay:    cfg.ReconnectDelay(),
					MaxAttempts:  cfg.WSMaxReconnectAttempts,
					WriteTimeout: cfg.WriteTimeout(),
				}, cfg.WSEndpoint),
				Listener: out,
			},
		)
		defer manager.CloseAll()

		mode := session.ModeRequest
		if overChannel {
			mode = session.ModeChannel
		}
		s, err := manager.Create(cmd.Context(), ac, quizID, mode)
		if err != nil {
			return err
		}

		lines := make(chan string)
		go func() {
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				lines <- sc.Text()
			}
			close(lines)
		}()

	loop:
		for {
			select {
			case <-out.done:
				break loop
			case line, ok := <-lines:
				if !ok {
					break loop
				}
				if err := handleInput(manager, ac, s.ID, line); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "  %v\n> ", err)
				}
			}
		}

		if mode == session.ModeRequest {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := submissions.Drain(ctx); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Some answers could not be saved before exit.")
			}
		}
		return nil
	},
}

func init() {
	playCmd.Flags().Bool("channel", false, "Report answers over the realtime message channel")
}

// handleInput answers with an option number while a question is open and
// moves on once it has been revealed.
func handleInput(m *session.Manager, ac auth.Context, id, line string) error {
	s, err := m.Get(ac, id)
	if err != nil {
		return err
	}

	line = strings.TrimSpace(line)
	if s.State().Phase == quiz.PhaseRevealed {
		_, err := m.Advance(ac, id)
		return err
	}
	if line == "" {
		return nil
	}

	n, err := strconv.Atoi(line)
	if err != nil {
		return fmt.Errorf("type an option number")
	}
	if _, err := m.Select(ac, id, n-1); err != nil {
		return err
	}
	_, err = m.Submit(ac, id)
	return err
}
