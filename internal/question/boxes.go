package question

import (
	"github.com/victornm/wordquiz/internal/domain"
)

type BoxKind string

const (
	BoxEmpty    BoxKind = "empty"
	BoxHelper   BoxKind = "helper"
	BoxRevealed BoxKind = "revealed"
)

// Box is one cell of the answer grid.
type Box struct {
	Kind   BoxKind `json:"kind"`
	Letter string  `json:"letter,omitempty"`
}

// Boxes derives the answer grid: every letter once revealed, otherwise the helping letters and
// blanks.
func Boxes(q *domain.Question) []Box {
	answer := []rune(q.Answer)
	boxes := make([]Box, len(answer))

	if q.Status == domain.QuestionStatusRevealed {
		for i, c := range answer {
			boxes[i] = Box{Kind: BoxRevealed, Letter: string(c)}
		}
		return boxes
	}

	for i := range boxes {
		boxes[i] = Box{Kind: BoxEmpty}
	}
	for _, h := range q.HelpingLetters {
		if h.Position >= 0 && h.Position < len(boxes) {
			boxes[h.Position] = Box{Kind: BoxHelper, Letter: h.Letter}
		}
	}

	return boxes
}
