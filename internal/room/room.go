// Package room creates, finds and deletes rooms and manages their participants.
package room

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
	"github.com/victornm/wordquiz/internal/store"
	"github.com/victornm/wordquiz/internal/telemetry"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength   = 6
)

type Config struct {
	Store   store.Store
	Signals store.Signals
	// NewCode overrides code generation. Defaults to GenerateCode.
	NewCode func() (string, error)
	Now     func() time.Time
}

type Service struct {
	store   store.Store
	signals store.Signals
	newCode func() (string, error)
	now     func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store:   c.Store,
		signals: c.Signals,
		newCode: c.NewCode,
		now:     c.Now,
	}

	if s.newCode == nil {
		s.newCode = GenerateCode
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// GenerateCode draws CodeLength characters uniformly from [A-Z0-9].
func GenerateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))

	var b strings.Builder
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}

	return b.String(), nil
}

// Create registers a new waiting room under a code no current room uses.
func (s *Service) Create(ctx context.Context, name string) (*domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("room name is required")
	}

	var created *domain.Room
	err := s.store.Mutate(ctx, func(rooms store.Rooms) error {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		for rooms[code] != nil {
			if code, err = s.newCode(); err != nil {
				return err
			}
		}

		r := &domain.Room{
			Code:         code,
			Name:         name,
			CreatedAt:    s.now().UTC(),
			Participants: []string{},
			Status:       domain.RoomStatusWaiting,
			Questions:    []domain.Question{},
			PlayerScores: domain.Scores{},
		}
		rooms[code] = r
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.RoomsCreated.Inc()
	return created.Clone(), nil
}

func (s *Service) Get(ctx context.Context, code string) (*domain.Room, error) {
	rooms, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	r, ok := rooms[code]
	if !ok {
		return nil, errors.NotFound("room not found: code=%s", code)
	}

	return r, nil
}

// List returns every room, oldest first.
func (s *Service) List(ctx context.Context) ([]*domain.Room, error) {
	rooms, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

// Delete removes a room and its signal log. Deleting a missing room succeeds.
func (s *Service) Delete(ctx context.Context, code string) error {
	err := s.store.Mutate(ctx, func(rooms store.Rooms) error {
		delete(rooms, code)
		return nil
	})
	if err != nil {
		return err
	}

	return s.signals.Clear(ctx, code)
}

// Update applies fn to one room under optimistic concurrency and returns the committed room.
func (s *Service) Update(ctx context.Context, code string, fn func(r *domain.Room) error) (*domain.Room, error) {
	var updated *domain.Room
	err := s.store.Mutate(ctx, func(rooms store.Rooms) error {
		r, ok := rooms[code]
		if !ok {
			return errors.NotFound("room not found: code=%s", code)
		}
		if err := fn(r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated.Clone(), nil
}

// AddParticipant appends name to the room. It reports false when the room does not exist;
// a name already present is left as is.
func (s *Service) AddParticipant(ctx context.Context, code, name string) (bool, error) {
	_, err := s.Update(ctx, code, func(r *domain.Room) error {
		if !r.HasParticipant(name) {
			r.Participants = append(r.Participants, name)
		}
		return nil
	})
	if errors.Is(err, errors.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// RemoveParticipant removes name from the room. Missing rooms and names are ignored.
func (s *Service) RemoveParticipant(ctx context.Context, code, name string) error {
	_, err := s.Update(ctx, code, func(r *domain.Room) error {
		kept := r.Participants[:0]
		for _, p := range r.Participants {
			if p != name {
				kept = append(kept, p)
			}
		}
		r.Participants = kept
		return nil
	})
	if errors.Is(err, errors.CodeNotFound) {
		return nil
	}

	return err
}
