// Package game is the operation surface presentation layers call. Every operation takes an
// explicit Host or Player context instead of reading ambient client state, applies the engines
// to a room snapshot under optimistic concurrency, and publishes what changed on the event bus.
package game

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
	"github.com/victornm/wordquiz/internal/event"
	"github.com/victornm/wordquiz/internal/question"
	"github.com/victornm/wordquiz/internal/room"
	"github.com/victornm/wordquiz/internal/score"
	"github.com/victornm/wordquiz/internal/session"
	"github.com/victornm/wordquiz/internal/store"
	"github.com/victornm/wordquiz/internal/telemetry"
)

// Host identifies the room a host client manages.
type Host struct {
	RoomCode string
}

// Player identifies a participant and the room it joined.
type Player struct {
	RoomCode string
	Name     string
}

type Config struct {
	Rooms    *room.Service
	Signals  store.Signals
	EventBus *event.Bus
	Now      func() time.Time
}

type Service struct {
	rooms   *room.Service
	signals store.Signals
	eb      *event.Bus
	now     func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		rooms:   c.Rooms,
		signals: c.Signals,
		eb:      c.EventBus,
		now:     c.Now,
	}

	if s.now == nil {
		s.now = time.Now
	}

	return s
}

func (s *Service) CreateRoom(ctx context.Context, name string) (r *domain.Room, err error) {
	defer observe("create_room", &err)

	r, err = s.rooms.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	s.roomChanged(ctx, r)
	return r, nil
}

// CloseRoom deletes the host's room and its signal log. Closing a missing room succeeds.
func (s *Service) CloseRoom(ctx context.Context, h Host) (err error) {
	defer observe("close_room", &err)

	if err = s.rooms.Delete(ctx, h.RoomCode); err != nil {
		return err
	}

	s.eb.Publish(ctx, domain.EventRoomDeleted{Code: h.RoomCode})
	return nil
}

func (s *Service) StartGame(ctx context.Context, h Host) (r *domain.Room, err error) {
	defer observe("start_game", &err)

	return s.update(ctx, h.RoomCode, session.StartGame)
}

type CreateQuestionRequest struct {
	Text   string
	Answer string
	// HelpingLetters is a list of 1-based "position,letter" pairs separated by ';' or '|'.
	HelpingLetters string
	// Points is question.DefaultPoints when nil. Any given value must be at least 1.
	Points *int
}

// CreateQuestion authors a question in the host's room. It does not select it.
func (s *Service) CreateQuestion(ctx context.Context, h Host, req CreateQuestionRequest) (q *domain.Question, err error) {
	defer observe("create_question", &err)

	points := question.DefaultPoints
	if req.Points != nil {
		points = *req.Points
	}

	var id string
	r, err := s.update(ctx, h.RoomCode, func(r *domain.Room) error {
		created, err := question.Create(r, question.CreateRequest{
			Text:           req.Text,
			Answer:         req.Answer,
			HelpingLetters: req.HelpingLetters,
			Points:         points,
			Now:            s.now().UTC(),
		})
		if err != nil {
			return err
		}
		id = created.QuestionID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &r.Questions[r.QuestionIndex(id)], nil
}

func (s *Service) SelectQuestion(ctx context.Context, h Host, questionID string) (r *domain.Room, err error) {
	defer observe("select_question", &err)

	return s.update(ctx, h.RoomCode, func(r *domain.Room) error {
		return question.Select(r, questionID)
	})
}

func (s *Service) DeleteQuestion(ctx context.Context, h Host, questionID string) (r *domain.Room, err error) {
	defer observe("delete_question", &err)

	return s.update(ctx, h.RoomCode, func(r *domain.Room) error {
		return question.Delete(r, questionID)
	})
}

// RevealAnswer reveals the current question and returns it.
func (s *Service) RevealAnswer(ctx context.Context, h Host) (q *domain.Question, err error) {
	defer observe("reveal_answer", &err)

	r, err := s.update(ctx, h.RoomCode, func(r *domain.Room) error {
		if err := session.RequirePlaying(r); err != nil {
			return err
		}
		_, err := question.Reveal(r, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	return r.CurrentQuestion(), nil
}

func (s *Service) AdvanceQuestion(ctx context.Context, h Host) (r *domain.Room, err error) {
	defer observe("advance_question", &err)

	return s.update(ctx, h.RoomCode, func(r *domain.Room) error {
		if err := session.RequirePlaying(r); err != nil {
			return err
		}
		return question.Advance(r)
	})
}

// MarkWrong stamps the current question and appends a wrong-answer signal to the room's log.
// The room change is announced only after the signal is stored, so a subscriber that re-reads
// on the announcement sees both. If Emit fails the stamp stays: observers flash on signals
// alone, and the host may mark again.
func (s *Service) MarkWrong(ctx context.Context, h Host) (sig domain.Signal, err error) {
	defer observe("mark_wrong", &err)

	r, err := s.rooms.Update(ctx, h.RoomCode, func(r *domain.Room) error {
		var err error
		sig, err = session.MarkWrong(r, s.now().UTC())
		return err
	})
	if err != nil {
		return domain.Signal{}, err
	}

	sig, err = s.signals.Emit(ctx, sig)
	if err != nil {
		return domain.Signal{}, err
	}

	s.roomChanged(ctx, r)
	s.eb.Publish(ctx, domain.EventAnswerMarkedWrong{Signal: sig})
	return sig, nil
}

// AwardPoints adds points to a participant and returns the new total.
func (s *Service) AwardPoints(ctx context.Context, h Host, player string, points int) (total int, err error) {
	defer observe("award_points", &err)

	_, err = s.update(ctx, h.RoomCode, func(r *domain.Room) error {
		if err := session.RequirePlaying(r); err != nil {
			return err
		}
		var err error
		total, err = score.Award(r, player, points)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.eb.Publish(ctx, domain.EventScoreAwarded{
		RoomCode: h.RoomCode,
		Player:   player,
		Points:   points,
		Total:    total,
	})
	return total, nil
}

// Scores returns the room's scores highest first.
func (s *Service) Scores(ctx context.Context, code string) ([]domain.ScoreEntry, error) {
	r, err := s.rooms.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	return score.Ranked(r), nil
}

// Join adds p to its room. A name already in the room is rejected.
func (s *Service) Join(ctx context.Context, p Player) (r *domain.Room, err error) {
	defer observe("join", &err)

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, errors.Validation("player name is required")
	}

	return s.update(ctx, p.RoomCode, func(r *domain.Room) error {
		if r.HasParticipant(name) {
			return errors.Duplicate("name already taken: room=%s name=%s", r.Code, name)
		}
		r.Participants = append(r.Participants, name)
		return nil
	})
}

// Leave removes p from its room. Leaving a missing room succeeds.
func (s *Service) Leave(ctx context.Context, p Player) (err error) {
	defer observe("leave", &err)

	if err = s.rooms.RemoveParticipant(ctx, p.RoomCode, p.Name); err != nil {
		return err
	}

	r, err := s.rooms.Get(ctx, p.RoomCode)
	if errors.Is(err, errors.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.roomChanged(ctx, r)
	return nil
}

// SubmitGuess checks a guess against the current question without changing the room.
func (s *Service) SubmitGuess(ctx context.Context, p Player, guess string) (correct bool, err error) {
	defer observe("submit_guess", &err)

	r, err := s.rooms.Get(ctx, p.RoomCode)
	if err != nil {
		return false, err
	}
	if !r.HasParticipant(p.Name) {
		return false, errors.NotFound("player not found: room=%s player=%s", r.Code, p.Name)
	}
	if err := session.RequirePlaying(r); err != nil {
		return false, err
	}

	q := r.CurrentQuestion()
	if q == nil {
		return false, errors.Precondition("no current question: room=%s", r.Code)
	}
	if strings.TrimSpace(guess) == "" {
		return false, errors.Validation("guess is required")
	}

	return question.Check(guess, q), nil
}

// ListRooms returns every room, oldest first.
func (s *Service) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	return s.rooms.List(ctx)
}

// Snapshot returns the current state of a room.
func (s *Service) Snapshot(ctx context.Context, code string) (*domain.Room, error) {
	return s.rooms.Get(ctx, code)
}

// LatestSignal returns the newest signal of a room, or nil.
func (s *Service) LatestSignal(ctx context.Context, code string) (*domain.Signal, error) {
	return s.signals.Latest(ctx, code)
}

func (s *Service) update(ctx context.Context, code string, fn func(r *domain.Room) error) (*domain.Room, error) {
	r, err := s.rooms.Update(ctx, code, fn)
	if err != nil {
		return nil, err
	}

	s.roomChanged(ctx, r)
	return r, nil
}

func (s *Service) roomChanged(ctx context.Context, r *domain.Room) {
	s.eb.Publish(ctx, domain.EventRoomChanged{Room: *r.Clone()})
}

func observe(op string, err *error) {
	code := codes.OK.String()
	if *err != nil {
		code = errors.Convert(*err).Code.String()
	}
	telemetry.Operations.WithLabelValues(op, code).Inc()
}
