package syncloop

import (
	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/question"
	"github.com/victornm/wordquiz/internal/score"
)

// Phase is what a participant screen shows.
type Phase string

const (
	// PhaseGone means the room no longer exists.
	PhaseGone Phase = "gone"
	// PhaseWaiting covers both a room that has not started and a game without a current question.
	PhaseWaiting  Phase = "waiting"
	PhaseQuestion Phase = "question"
)

type QuestionView struct {
	ID     string                `json:"question_id"`
	Text   string                `json:"question"`
	Length int                   `json:"answer_length"`
	Points int                   `json:"points"`
	Status domain.QuestionStatus `json:"status"`
	Boxes  []question.Box        `json:"boxes"`
	// Answer is empty for participants until the question is revealed.
	Answer string `json:"answer,omitempty"`
}

type QuestionSummary struct {
	ID      string                `json:"question_id"`
	Text    string                `json:"question"`
	Answer  string                `json:"answer"`
	Points  int                   `json:"points"`
	Status  domain.QuestionStatus `json:"status"`
	Current bool                  `json:"current"`
}

type HostView struct {
	RoomCode     string              `json:"code"`
	Gone         bool                `json:"gone"`
	Name         string              `json:"name,omitempty"`
	Status       domain.RoomStatus   `json:"status,omitempty"`
	Participants []string            `json:"participants"`
	Questions    []QuestionSummary   `json:"questions"`
	Current      *QuestionView       `json:"current,omitempty"`
	Scores       []domain.ScoreEntry `json:"scores"`
}

type ParticipantView struct {
	RoomCode string `json:"code"`
	Name     string `json:"name"`
	Phase    Phase  `json:"phase"`
	// Others are the participants other than this one.
	Others   []string            `json:"others"`
	Question *QuestionView       `json:"question,omitempty"`
	Score    int                 `json:"score"`
	Scores   []domain.ScoreEntry `json:"scores"`
	// Flash is set for exactly one view per wrong-answer signal.
	Flash bool `json:"flash"`
}

// NewHostView reconciles the host screen with a snapshot.
func NewHostView(s Snapshot) HostView {
	v := HostView{
		RoomCode:     s.Code,
		Participants: []string{},
		Questions:    []QuestionSummary{},
		Scores:       []domain.ScoreEntry{},
	}
	if !s.Found || s.Room == nil {
		v.Gone = true
		return v
	}

	r := s.Room
	v.Name = r.Name
	v.Status = r.Status
	v.Participants = append(v.Participants, r.Participants...)
	for _, q := range r.Questions {
		v.Questions = append(v.Questions, QuestionSummary{
			ID:      q.QuestionID,
			Text:    q.Question,
			Answer:  q.Answer,
			Points:  q.Points,
			Status:  q.Status,
			Current: q.QuestionID == r.CurrentQuestionID,
		})
	}
	if q := r.CurrentQuestion(); q != nil {
		v.Current = questionView(q, true)
	}
	v.Scores = score.Ranked(r)

	return v
}

// NewParticipantView reconciles the screen of participant name with a snapshot. Flash is left
// for the caller to decide.
func NewParticipantView(s Snapshot, name string) ParticipantView {
	v := ParticipantView{
		RoomCode: s.Code,
		Name:     name,
		Phase:    PhaseGone,
		Others:   []string{},
		Scores:   []domain.ScoreEntry{},
	}
	if !s.Found || s.Room == nil {
		return v
	}

	r := s.Room
	for _, p := range r.Participants {
		if p != name {
			v.Others = append(v.Others, p)
		}
	}
	v.Score = score.Of(r, name)
	v.Scores = score.Ranked(r)

	v.Phase = PhaseWaiting
	if r.Status != domain.RoomStatusPlaying {
		return v
	}
	if q := r.CurrentQuestion(); q != nil {
		v.Phase = PhaseQuestion
		v.Question = questionView(q, false)
	}

	return v
}

func questionView(q *domain.Question, host bool) *QuestionView {
	v := &QuestionView{
		ID:     q.QuestionID,
		Text:   q.Question,
		Length: q.AnswerLength,
		Points: q.Points,
		Status: q.Status,
		Boxes:  question.Boxes(q),
	}
	if host || q.Status == domain.QuestionStatusRevealed {
		v.Answer = q.Answer
	}
	return v
}
