package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/question"
	"github.com/victornm/wordquiz/internal/syncloop"
)

func renderHost(w io.Writer, v syncloop.HostView) {
	if v.Gone {
		fmt.Fprintf(w, "room %s is closed\n", v.RoomCode)
		return
	}

	fmt.Fprintf(w, "== %s [%s] %s\n", v.Name, v.RoomCode, v.Status)
	fmt.Fprintf(w, "participants (%d): %s\n", len(v.Participants), joinOrDash(v.Participants))

	fmt.Fprintln(w, "questions:")
	if len(v.Questions) == 0 {
		fmt.Fprintln(w, "  -")
	}
	for _, q := range v.Questions {
		marker := " "
		if q.Current {
			marker = ">"
		}
		fmt.Fprintf(w, "%s %-4s %s = %s (%d pts, %s)\n", marker, q.ID, q.Text, q.Answer, q.Points, q.Status)
	}

	if v.Current != nil {
		fmt.Fprintf(w, "current: %s\n", boxes(v.Current.Boxes))
	}

	renderScores(w, v.Scores)
}

func renderParticipant(w io.Writer, v syncloop.ParticipantView) {
	switch v.Phase {
	case syncloop.PhaseGone:
		fmt.Fprintf(w, "room %s is closed\n", v.RoomCode)
		return
	case syncloop.PhaseWaiting:
		fmt.Fprintf(w, "== %s [%s] waiting for the host\n", v.Name, v.RoomCode)
	case syncloop.PhaseQuestion:
		q := v.Question
		fmt.Fprintf(w, "== %s [%s] %s (%d letters, %d pts)\n", v.Name, v.RoomCode, q.Text, q.Length, q.Points)
		fmt.Fprintf(w, "   %s\n", boxes(q.Boxes))
		if q.Status == domain.QuestionStatusRevealed {
			fmt.Fprintf(w, "answer: %s\n", q.Answer)
		}
	}

	if v.Flash {
		fmt.Fprintln(w, "!! WRONG !!")
	}

	fmt.Fprintf(w, "also here: %s\n", joinOrDash(v.Others))
	fmt.Fprintf(w, "your score: %d\n", v.Score)
	renderScores(w, v.Scores)
}

func renderScores(w io.Writer, scores []domain.ScoreEntry) {
	fmt.Fprintln(w, "scores:")
	if len(scores) == 0 {
		fmt.Fprintln(w, "  -")
	}
	for i, e := range scores {
		fmt.Fprintf(w, "  %d. %s %d\n", i+1, e.Name, e.Points)
	}
}

// boxes draws the answer grid, one bracketed cell per letter.
func boxes(bs []question.Box) string {
	var sb strings.Builder
	for _, b := range bs {
		letter := "_"
		if b.Kind != question.BoxEmpty {
			letter = b.Letter
		}
		sb.WriteString("[" + letter + "]")
	}
	return sb.String()
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
