// Package session holds the room and question state machines.
//
// A room moves from waiting to playing once and never back. A question moves from active to
// revealed once. Operations that only make sense during a game check RequirePlaying first.
package session

import (
	"time"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
	"github.com/victornm/wordquiz/internal/score"
)

// StartGame moves the room to playing, selects the first question when none is selected, and
// gives every participant a score entry. Starting without questions is allowed.
func StartGame(r *domain.Room) error {
	if r.Status == domain.RoomStatusPlaying {
		return errors.Precondition("game already started: room=%s", r.Code)
	}

	r.Status = domain.RoomStatusPlaying
	if r.CurrentQuestionID == "" && len(r.Questions) > 0 {
		r.CurrentQuestionID = r.Questions[0].QuestionID
	}
	score.Init(r)

	return nil
}

func RequirePlaying(r *domain.Room) error {
	if r.Status != domain.RoomStatusPlaying {
		return errors.Precondition("game not started: room=%s", r.Code)
	}
	return nil
}

// MarkWrong stamps the current question with a wrong-answer mark and returns the signal to
// broadcast. Stamps strictly increase per question even when the clock does not.
func MarkWrong(r *domain.Room, now time.Time) (domain.Signal, error) {
	if err := RequirePlaying(r); err != nil {
		return domain.Signal{}, err
	}

	q := r.CurrentQuestion()
	if q == nil {
		return domain.Signal{}, errors.Precondition("no current question: room=%s", r.Code)
	}

	ms := now.UnixMilli()
	if q.LastWrongFlashTime != nil && ms <= *q.LastWrongFlashTime {
		ms = *q.LastWrongFlashTime + 1
	}
	q.LastWrongFlashTime = &ms

	return domain.Signal{
		Kind:       domain.SignalWrongAnswer,
		RoomCode:   r.Code,
		QuestionID: q.QuestionID,
		At:         now,
	}, nil
}
