package syncloop

import (
	"context"
	"sync"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/telemetry"
)

// FlashStore remembers, per room and question, the last wrong-answer signal a client acted on.
// Signal sequences restart in every room, so a key without the room would hide new signals.
type FlashStore interface {
	LastFlashSeq(ctx context.Context, roomCode, questionID string) (int64, error)
	SetLastFlashSeq(ctx context.Context, roomCode, questionID string, seq int64) error
}

// FlashTracker decides when a participant plays the wrong-answer pulse. Polling may observe the
// same signal many times; the pulse fires once per signal. Signals superseded between two
// observations are never replayed, only the newest fires.
type FlashTracker struct {
	store FlashStore
}

func NewFlashTracker(s FlashStore) *FlashTracker {
	return &FlashTracker{store: s}
}

// Observe reports whether sig should fire now for a client showing currentQuestionID.
func (f *FlashTracker) Observe(ctx context.Context, sig *domain.Signal, currentQuestionID string) (bool, error) {
	if sig == nil || sig.Kind != domain.SignalWrongAnswer {
		return false, nil
	}
	if currentQuestionID == "" || sig.QuestionID != currentQuestionID {
		return false, nil
	}

	last, err := f.store.LastFlashSeq(ctx, sig.RoomCode, sig.QuestionID)
	if err != nil {
		return false, err
	}
	if sig.Seq <= last {
		return false, nil
	}

	if err := f.store.SetLastFlashSeq(ctx, sig.RoomCode, sig.QuestionID, sig.Seq); err != nil {
		return false, err
	}

	telemetry.FlashesFired.Inc()
	return true, nil
}

// MemoryFlashStore keeps flash sequences for the lifetime of one observer, such as a stream.
type MemoryFlashStore struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func NewMemoryFlashStore() *MemoryFlashStore {
	return &MemoryFlashStore{seqs: make(map[string]int64)}
}

func (m *MemoryFlashStore) LastFlashSeq(_ context.Context, roomCode, questionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.seqs[roomCode+"/"+questionID], nil
}

func (m *MemoryFlashStore) SetLastFlashSeq(_ context.Context, roomCode, questionID string, seq int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seqs[roomCode+"/"+questionID] = seq
	return nil
}
