package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/victornm/wordquiz/internal/game"
	"github.com/victornm/wordquiz/internal/syncloop"
)

func newPlayCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take part in a quiz room.",
	}

	cmd.AddCommand(
		newPlayJoinCmd(cfg),
		playerCmd(cfg, "guess <answer>", "Check an answer to the current question.", cobra.MinimumNArgs(1), func(ctx context.Context, a *app, p game.Player, w io.Writer, args []string) error {
			correct, err := a.game.SubmitGuess(ctx, p, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if correct {
				fmt.Fprintln(w, "correct!")
			} else {
				fmt.Fprintln(w, "not quite")
			}
			return nil
		}),
		playerCmd(cfg, "leave", "Leave the room.", cobra.NoArgs, func(ctx context.Context, a *app, p game.Player, w io.Writer, _ []string) error {
			if err := a.game.Leave(ctx, p); err != nil {
				return err
			}
			if err := a.state.ClearPlayer(ctx); err != nil {
				return err
			}

			fmt.Fprintf(w, "left room %s\n", p.RoomCode)
			return nil
		}),
		playerCmd(cfg, "watch", "Follow the room until interrupted.", cobra.NoArgs, func(ctx context.Context, a *app, p game.Player, w io.Writer, _ []string) error {
			loop := syncloop.NewLoop(syncloop.LoopConfig{
				Source:  a.source(),
				Flashes: syncloop.NewFlashTracker(a.state),
			})

			err := loop.RunParticipant(ctx, p, func(v syncloop.ParticipantView) {
				fmt.Fprintln(w)
				renderParticipant(w, v)
			})
			return ignoreCanceled(err)
		}),
	)

	return cmd
}

type playerFunc func(ctx context.Context, a *app, p game.Player, w io.Writer, args []string) error

// playerCmd builds a command acting as the participant this client joined as.
func playerCmd(cfg *Config, use, short string, args cobra.PositionalArgs, fn playerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				p, err := a.player(cmd.Context())
				if err != nil {
					return err
				}
				return fn(cmd.Context(), a, p, cmd.OutOrStdout(), args)
			})
		},
	}
}

func newPlayJoinCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "join <code> <name>",
		Short: "Join a room under a display name.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := game.Player{
				RoomCode: strings.ToUpper(strings.TrimSpace(args[0])),
				Name:     strings.TrimSpace(args[1]),
			}

			return withApp(cmd.Context(), cfg, func(a *app) error {
				r, err := a.game.Join(cmd.Context(), p)
				if err != nil {
					return err
				}
				if err := a.state.SetPlayer(cmd.Context(), p); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "joined %q as %s\n", r.Name, p.Name)
				return nil
			})
		},
	}
}
