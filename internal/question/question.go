// Package question authors, selects, reveals and advances the questions of a room.
// Every function operates on a room snapshot in memory; persisting it is the caller's job.
package question

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
)

// DefaultPoints is the value of a question authored without points.
const DefaultPoints = 10

type CreateRequest struct {
	Text string
	// Answer is normalized to trimmed upper case.
	Answer string
	// HelpingLetters is a list of 1-based "position,letter" pairs separated by ';' or '|'.
	HelpingLetters string
	Points         int
	Now            time.Time
}

// Create appends a new active question to the room and returns it.
func Create(r *domain.Room, req CreateRequest) (*domain.Question, error) {
	text := strings.TrimSpace(req.Text)
	answer := Normalize(req.Answer)

	if text == "" || answer == "" {
		return nil, errors.Validation("question and answer are required")
	}
	if req.Points < 1 {
		return nil, errors.Validation("points must be at least 1: got %d", req.Points)
	}

	length := utf8.RuneCountInString(answer)

	r.NextQuestionSeq = nextSeq(r)
	q := domain.Question{
		QuestionID:     fmt.Sprintf("q%d", r.NextQuestionSeq),
		Question:       text,
		Answer:         answer,
		AnswerLength:   length,
		HelpingLetters: ParseHelpingLetters(req.HelpingLetters, length),
		Points:         req.Points,
		Status:         domain.QuestionStatusActive,
		CreatedAt:      req.Now,
	}
	r.Questions = append(r.Questions, q)

	return &r.Questions[len(r.Questions)-1], nil
}

// nextSeq returns a sequence number above every ID ever handed out in the room, including rooms
// written before the counter existed.
func nextSeq(r *domain.Room) int {
	seq := r.NextQuestionSeq
	if seq < len(r.Questions) {
		seq = len(r.Questions)
	}
	for _, q := range r.Questions {
		if n, err := strconv.Atoi(strings.TrimPrefix(q.QuestionID, "q")); err == nil && n > seq {
			seq = n
		}
	}
	return seq + 1
}

// Select makes the question with the given ID the current one.
func Select(r *domain.Room, id string) error {
	if r.QuestionIndex(id) < 0 {
		return errors.NotFound("question not found: room=%s question=%s", r.Code, id)
	}

	r.CurrentQuestionID = id
	return nil
}

// Delete removes a question. If it was current, the first remaining question becomes current,
// or none when the list is empty.
func Delete(r *domain.Room, id string) error {
	i := r.QuestionIndex(id)
	if i < 0 {
		return errors.NotFound("question not found: room=%s question=%s", r.Code, id)
	}

	r.Questions = append(r.Questions[:i], r.Questions[i+1:]...)

	if r.CurrentQuestionID == id {
		r.CurrentQuestionID = ""
		if len(r.Questions) > 0 {
			r.CurrentQuestionID = r.Questions[0].QuestionID
		}
	}

	return nil
}

// Reveal exposes the answer of the current question. Revealing twice keeps the first reveal time.
func Reveal(r *domain.Room, now time.Time) (*domain.Question, error) {
	q := r.CurrentQuestion()
	if q == nil {
		return nil, errors.Precondition("no current question: room=%s", r.Code)
	}

	if q.Status == domain.QuestionStatusRevealed {
		return q, nil
	}

	q.Status = domain.QuestionStatusRevealed
	q.RevealedAt = &now
	return q, nil
}

// Advance moves to the next question in authoring order. It is a no-op without a current question.
func Advance(r *domain.Room) error {
	if r.CurrentQuestionID == "" {
		return nil
	}

	i := r.QuestionIndex(r.CurrentQuestionID)
	if i < 0 {
		return nil
	}
	if i == len(r.Questions)-1 {
		return errors.Precondition("no more questions: room=%s", r.Code)
	}

	r.CurrentQuestionID = r.Questions[i+1].QuestionID
	return nil
}

// Check reports whether guess matches the answer, ignoring case and surrounding whitespace.
func Check(guess string, q *domain.Question) bool {
	return Normalize(guess) == q.Answer
}

func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
