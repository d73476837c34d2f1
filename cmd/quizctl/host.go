package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/victornm/wordquiz/internal/api"
	"github.com/victornm/wordquiz/internal/game"
	"github.com/victornm/wordquiz/internal/question"
	"github.com/victornm/wordquiz/internal/score"
	"github.com/victornm/wordquiz/internal/syncloop"
)

const defaultRoomName = "Host Room"

func newHostCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Run a quiz room as its host.",
	}

	cmd.AddCommand(
		newHostCreateCmd(cfg),
		hostCmd(cfg, "start", "Start the game.", cobra.NoArgs, func(ctx context.Context, a *app, h game.Host, w io.Writer, _ []string) error {
			r, err := a.game.StartGame(ctx, h)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "room %s is %s\n", r.Code, r.Status)
			return nil
		}),
		newHostAddCmd(cfg),
		hostCmd(cfg, "select <question-id>", "Make a question the current one.", cobra.ExactArgs(1), func(ctx context.Context, a *app, h game.Host, w io.Writer, args []string) error {
			r, err := a.game.SelectQuestion(ctx, h, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "current question: %s\n", r.CurrentQuestionID)
			return nil
		}),
		hostCmd(cfg, "drop <question-id>", "Delete a question.", cobra.ExactArgs(1), func(ctx context.Context, a *app, h game.Host, w io.Writer, args []string) error {
			r, err := a.game.DeleteQuestion(ctx, h, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "deleted %s, current question: %s\n", args[0], orDash(r.CurrentQuestionID))
			return nil
		}),
		hostCmd(cfg, "reveal", "Reveal the answer of the current question.", cobra.NoArgs, func(ctx context.Context, a *app, h game.Host, w io.Writer, _ []string) error {
			q, err := a.game.RevealAnswer(ctx, h)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s: %s\n", q.QuestionID, q.Answer)
			return nil
		}),
		hostCmd(cfg, "next", "Move to the next question.", cobra.NoArgs, func(ctx context.Context, a *app, h game.Host, w io.Writer, _ []string) error {
			r, err := a.game.AdvanceQuestion(ctx, h)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "current question: %s\n", orDash(r.CurrentQuestionID))
			return nil
		}),
		hostCmd(cfg, "wrong", "Flash a wrong answer on every participant screen.", cobra.NoArgs, func(ctx context.Context, a *app, h game.Host, w io.Writer, _ []string) error {
			sig, err := a.game.MarkWrong(ctx, h)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "wrong answer signalled for %s (#%d)\n", sig.QuestionID, sig.Seq)
			return nil
		}),
		hostCmd(cfg, "award <player> <points>", "Add points to a participant's score.", cobra.ExactArgs(2), func(ctx context.Context, a *app, h game.Host, w io.Writer, args []string) error {
			points, err := score.ParsePoints(args[1])
			if err != nil {
				return err
			}
			total, err := a.game.AwardPoints(ctx, h, args[0], points)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s now has %d points\n", args[0], total)
			return nil
		}),
		newHostQRCmd(cfg),
		newHostCloseCmd(cfg),
		newHostWatchCmd(cfg),
	)

	return cmd
}

type hostFunc func(ctx context.Context, a *app, h game.Host, w io.Writer, args []string) error

// hostCmd builds a command acting on the room this client hosts.
func hostCmd(cfg *Config, use, short string, args cobra.PositionalArgs, fn hostFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				h, err := a.host(cmd.Context())
				if err != nil {
					return err
				}
				return fn(cmd.Context(), a, h, cmd.OutOrStdout(), args)
			})
		},
	}
}

func newHostCreateCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a room and become its host.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := defaultRoomName
			if len(args) > 0 {
				name = args[0]
			}

			return withApp(cmd.Context(), cfg, func(a *app) error {
				r, err := a.game.CreateRoom(cmd.Context(), name)
				if err != nil {
					return err
				}
				if err := a.state.SetHost(cmd.Context(), game.Host{RoomCode: r.Code}); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "created room %q, code %s\n", r.Name, r.Code)
				return nil
			})
		},
	}
}

func newHostAddCmd(cfg *Config) *cobra.Command {
	var text, answer, letters, points string

	cmd := hostCmd(cfg, "add", "Add a question.", cobra.NoArgs, func(ctx context.Context, a *app, h game.Host, w io.Writer, _ []string) error {
		p, err := question.ParsePoints(points)
		if err != nil {
			return err
		}

		q, err := a.game.CreateQuestion(ctx, h, game.CreateQuestionRequest{
			Text:           text,
			Answer:         answer,
			HelpingLetters: letters,
			Points:         &p,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "added %s: %s (%d letters, %d pts)\n", q.QuestionID, q.Question, q.AnswerLength, q.Points)
		return nil
	})

	fs := cmd.Flags()
	fs.StringVarP(&text, "question", "q", "", "question text")
	fs.StringVarP(&answer, "answer", "a", "", "answer")
	fs.StringVarP(&letters, "letters", "l", "", `helping letters as 1-based "position,letter" pairs separated by ';' or '|'`)
	fs.StringVarP(&points, "points", "p", "", fmt.Sprintf("points for a correct answer (default %d)", question.DefaultPoints))
	_ = cmd.MarkFlagRequired("question")
	_ = cmd.MarkFlagRequired("answer")

	return cmd
}

func newHostQRCmd(cfg *Config) *cobra.Command {
	var joinURL string

	cmd := hostCmd(cfg, "qr", "Print a QR code of the join link.", cobra.NoArgs, func(ctx context.Context, a *app, h game.Host, w io.Writer, _ []string) error {
		if _, err := a.game.Snapshot(ctx, h.RoomCode); err != nil {
			return err
		}

		link := api.JoinLink(joinURL, h.RoomCode)
		q, err := qrcode.New(link, qrcode.Medium)
		if err != nil {
			return err
		}

		fmt.Fprint(w, q.ToSmallString(false))
		fmt.Fprintln(w, link)
		return nil
	})

	cmd.Flags().StringVar(&joinURL, "join-url", "http://localhost:8080/play", "base URL of the participant page")

	return cmd
}

func newHostCloseCmd(cfg *Config) *cobra.Command {
	return hostCmd(cfg, "close", "Delete the room.", cobra.NoArgs, func(ctx context.Context, a *app, h game.Host, w io.Writer, _ []string) error {
		if err := a.game.CloseRoom(ctx, h); err != nil {
			return err
		}
		if err := a.state.ClearHost(ctx); err != nil {
			return err
		}

		fmt.Fprintf(w, "closed room %s\n", h.RoomCode)
		return nil
	})
}

func newHostWatchCmd(cfg *Config) *cobra.Command {
	return hostCmd(cfg, "watch", "Follow the room until interrupted.", cobra.NoArgs, func(ctx context.Context, a *app, h game.Host, w io.Writer, _ []string) error {
		loop := syncloop.NewLoop(syncloop.LoopConfig{Source: a.source()})

		err := loop.RunHost(ctx, h, func(v syncloop.HostView) {
			fmt.Fprintln(w)
			renderHost(w, v)
		})
		return ignoreCanceled(err)
	})
}

func ignoreCanceled(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
