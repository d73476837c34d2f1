package syncloop_test

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
	"github.com/victornm/wordquiz/internal/syncloop"
)

var now = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

type fakeReader struct {
	mu     sync.Mutex
	room   *domain.Room
	signal *domain.Signal
	err    error
	reads  int
}

func (f *fakeReader) Snapshot(_ context.Context, code string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	if f.room == nil || f.room.Code != code {
		return nil, errors.NotFound("room not found: code=%s", code)
	}
	return f.room.Clone(), nil
}

func (f *fakeReader) LatestSignal(context.Context, string) (*domain.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.signal == nil {
		return nil, nil
	}
	sig := *f.signal
	return &sig, nil
}

func (f *fakeReader) set(fn func(f *fakeReader)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{c: make(chan time.Time)}
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

func (t *fakeTicker) tick() { t.c <- now }

type memFlashStore struct {
	mu   sync.Mutex
	seqs map[string]int64
	err  error
}

func newMemFlashStore() *memFlashStore {
	return &memFlashStore{seqs: make(map[string]int64)}
}

func (m *memFlashStore) LastFlashSeq(_ context.Context, code, qid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}
	return m.seqs[code+"/"+qid], nil
}

func (m *memFlashStore) SetLastFlashSeq(_ context.Context, code, qid string, seq int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seqs[code+"/"+qid] = seq
	return nil
}

var errUnavailable = stderrors.New("unavailable")

func makeRoom() *domain.Room {
	return &domain.Room{
		Code:         "ABC123",
		Name:         "Quiz",
		CreatedAt:    now,
		Participants: []string{"Ana", "Ben"},
		Status:       domain.RoomStatusWaiting,
		Questions: []domain.Question{
			{
				QuestionID:     "q1",
				Question:       "Ocean motion",
				Answer:         "WAVE",
				AnswerLength:   4,
				HelpingLetters: []domain.HelpingLetter{{Position: 0, Letter: "W"}},
				Points:         10,
				Status:         domain.QuestionStatusActive,
				CreatedAt:      now,
			},
			{
				QuestionID:   "q2",
				Question:     "Big cat",
				Answer:       "LION",
				AnswerLength: 4,
				Points:       20,
				Status:       domain.QuestionStatusActive,
				CreatedAt:    now,
			},
		},
		PlayerScores: domain.Scores{},
	}
}

func wrong(seq int64, qid string) *domain.Signal {
	return &domain.Signal{Seq: seq, Kind: domain.SignalWrongAnswer, RoomCode: "ABC123", QuestionID: qid, At: now}
}

func receive(t *testing.T, ch <-chan syncloop.Snapshot) syncloop.Snapshot {
	t.Helper()

	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("snapshot channel closed")
		}
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return syncloop.Snapshot{}
}
