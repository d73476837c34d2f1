package domain

import (
	"time"
)

type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting"
	RoomStatusPlaying RoomStatus = "playing"
)

type QuestionStatus string

const (
	QuestionStatusActive   QuestionStatus = "active"
	QuestionStatusRevealed QuestionStatus = "revealed"
)

// Room represents one quiz session. A room exclusively owns its questions and scores.
type Room struct {
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	CreatedAt    time.Time  `json:"createdAt"`
	Participants []string   `json:"participants"`
	Status       RoomStatus `json:"status"`
	Questions    []Question `json:"questions"`
	// CurrentQuestionID is empty when no question is selected.
	CurrentQuestionID string `json:"current_question_id"`
	PlayerScores      Scores `json:"player_scores"`

	// Version is incremented by every committed mutation of the room.
	Version int64 `json:"version"`
	// NextQuestionSeq is the sequence number of the next authored question. It never decreases,
	// so question IDs are not reused after deletion.
	NextQuestionSeq int `json:"next_question_seq"`
}

type Question struct {
	QuestionID     string          `json:"question_id"`
	Question       string          `json:"question"`
	Answer         string          `json:"answer"`
	AnswerLength   int             `json:"answer_length"`
	HelpingLetters []HelpingLetter `json:"helping_letters"`
	Points         int             `json:"points"`
	Status         QuestionStatus  `json:"status"`
	RevealedAt     *time.Time      `json:"revealed_at"`
	CreatedAt      time.Time       `json:"created_at"`
	// LastWrongFlashTime is the millisecond stamp of the latest wrong-answer mark on this question.
	LastWrongFlashTime *int64 `json:"last_wrong_flash_time,omitempty"`
}

// HelpingLetter is a letter pre-shown at a 0-based position of the answer grid.
type HelpingLetter struct {
	Position int    `json:"position"`
	Letter   string `json:"letter"`
}

// HasParticipant reports whether name joined the room. Names are case-sensitive.
func (r *Room) HasParticipant(name string) bool {
	for _, p := range r.Participants {
		if p == name {
			return true
		}
	}
	return false
}

// QuestionIndex returns the index of the question with the given ID, or -1.
func (r *Room) QuestionIndex(id string) int {
	for i := range r.Questions {
		if r.Questions[i].QuestionID == id {
			return i
		}
	}
	return -1
}

// CurrentQuestion returns the selected question, or nil when none is selected.
func (r *Room) CurrentQuestion() *Question {
	if r.CurrentQuestionID == "" {
		return nil
	}
	if i := r.QuestionIndex(r.CurrentQuestionID); i >= 0 {
		return &r.Questions[i]
	}
	return nil
}

// Clone returns a deep copy so callers can mutate a snapshot without touching the original.
func (r *Room) Clone() *Room {
	c := *r
	c.Participants = append([]string(nil), r.Participants...)
	c.PlayerScores = append(Scores(nil), r.PlayerScores...)
	c.Questions = make([]Question, len(r.Questions))
	for i, q := range r.Questions {
		letters := make([]HelpingLetter, len(q.HelpingLetters))
		copy(letters, q.HelpingLetters)
		q.HelpingLetters = letters
		if q.RevealedAt != nil {
			t := *q.RevealedAt
			q.RevealedAt = &t
		}
		if q.LastWrongFlashTime != nil {
			ms := *q.LastWrongFlashTime
			q.LastWrongFlashTime = &ms
		}
		c.Questions[i] = q
	}
	return &c
}

type SignalKind string

const SignalWrongAnswer SignalKind = "wrong_answer"

// Signal is a one-shot notification kept in a per-room log outside the Room record.
// Seq strictly increases within a room; observers remember the last Seq they acted on.
type Signal struct {
	Seq        int64      `json:"seq"`
	Kind       SignalKind `json:"kind"`
	RoomCode   string     `json:"room_code"`
	QuestionID string     `json:"question_id"`
	At         time.Time  `json:"at"`
}
