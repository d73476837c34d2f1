package question_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
	"github.com/victornm/wordquiz/internal/question"
)

var now = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	tests := map[string]struct {
		req    question.CreateRequest
		assert func(t *testing.T, q *domain.Question, err error)
	}{
		"answer is normalized and length derived": {
			req: question.CreateRequest{Text: " Ocean motion ", Answer: "  wave ", Points: 10, Now: now},
			assert: func(t *testing.T, q *domain.Question, err error) {
				require.NoError(t, err)
				assert.Equal(t, "Ocean motion", q.Question)
				assert.Equal(t, "WAVE", q.Answer)
				assert.Equal(t, 4, q.AnswerLength)
				assert.Equal(t, domain.QuestionStatusActive, q.Status)
				assert.Nil(t, q.RevealedAt)
				assert.Equal(t, now, q.CreatedAt)
			},
		},
		"length counts characters not bytes": {
			req: question.CreateRequest{Text: "Greek", Answer: "αβγ", Points: 1},
			assert: func(t *testing.T, q *domain.Question, err error) {
				require.NoError(t, err)
				assert.Equal(t, "ΑΒΓ", q.Answer)
				assert.Equal(t, 3, q.AnswerLength)
			},
		},
		"helping letters are parsed": {
			req: question.CreateRequest{Text: "t", Answer: "wave", HelpingLetters: "1,w;4,e", Points: 5},
			assert: func(t *testing.T, q *domain.Question, err error) {
				require.NoError(t, err)
				assert.Equal(t, []domain.HelpingLetter{{Position: 0, Letter: "W"}, {Position: 3, Letter: "E"}}, q.HelpingLetters)
			},
		},
		"empty text is rejected": {
			req: question.CreateRequest{Text: "   ", Answer: "wave", Points: 5},
			assert: func(t *testing.T, q *domain.Question, err error) {
				assert.True(t, errors.Is(err, errors.CodeInvalidArgument))
			},
		},
		"empty answer is rejected": {
			req: question.CreateRequest{Text: "t", Answer: " ", Points: 5},
			assert: func(t *testing.T, q *domain.Question, err error) {
				assert.True(t, errors.Is(err, errors.CodeInvalidArgument))
			},
		},
		"zero points are rejected": {
			req: question.CreateRequest{Text: "t", Answer: "wave", Points: 0},
			assert: func(t *testing.T, q *domain.Question, err error) {
				assert.True(t, errors.Is(err, errors.CodeInvalidArgument))
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := &domain.Room{Code: "ABC123"}
			q, err := question.Create(r, tt.req)
			tt.assert(t, q, err)
			if err != nil {
				assert.Empty(t, r.Questions, "a rejected question must not be stored")
			}
		})
	}
}

func TestCreate_IDsAreNotReusedAfterDelete(t *testing.T) {
	r := &domain.Room{Code: "ABC123"}
	q1 := mustCreate(t, r, "one")
	q2 := mustCreate(t, r, "two")
	require.Equal(t, "q1", q1)
	require.Equal(t, "q2", q2)

	require.NoError(t, question.Delete(r, "q2"))
	require.Equal(t, "q3", mustCreate(t, r, "three"))
}

func TestCreate_LegacyRoomWithoutCounter(t *testing.T) {
	r := &domain.Room{
		Code:      "ABC123",
		Questions: []domain.Question{{QuestionID: "q1"}, {QuestionID: "q5"}},
	}

	require.Equal(t, "q6", mustCreate(t, r, "next"))
}

func TestSelect(t *testing.T) {
	r := &domain.Room{Code: "ABC123"}
	mustCreate(t, r, "one")
	mustCreate(t, r, "two")

	require.NoError(t, question.Select(r, "q2"))
	require.Equal(t, "q2", r.CurrentQuestionID)

	err := question.Select(r, "q9")
	require.True(t, errors.Is(err, errors.CodeNotFound))
	require.Equal(t, "q2", r.CurrentQuestionID)
}

func TestDelete_ReassignsCurrent(t *testing.T) {
	r := &domain.Room{Code: "ABC123"}
	mustCreate(t, r, "one")
	mustCreate(t, r, "two")
	require.NoError(t, question.Select(r, "q1"))

	require.NoError(t, question.Delete(r, "q1"))
	require.Equal(t, "q2", r.CurrentQuestionID)

	require.NoError(t, question.Delete(r, "q2"))
	require.Equal(t, "", r.CurrentQuestionID)
	require.Empty(t, r.Questions)

	err := question.Delete(r, "q2")
	require.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestDelete_OtherQuestionKeepsCurrent(t *testing.T) {
	r := &domain.Room{Code: "ABC123"}
	mustCreate(t, r, "one")
	mustCreate(t, r, "two")
	require.NoError(t, question.Select(r, "q2"))

	require.NoError(t, question.Delete(r, "q1"))
	require.Equal(t, "q2", r.CurrentQuestionID)
}

func TestReveal(t *testing.T) {
	r := &domain.Room{Code: "ABC123"}

	_, err := question.Reveal(r, now)
	require.True(t, errors.Is(err, errors.CodeFailedPrecondition))

	mustCreate(t, r, "one")
	require.NoError(t, question.Select(r, "q1"))

	q, err := question.Reveal(r, now)
	require.NoError(t, err)
	require.Equal(t, domain.QuestionStatusRevealed, q.Status)
	require.Equal(t, now, *q.RevealedAt)

	q, err = question.Reveal(r, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, domain.QuestionStatusRevealed, q.Status)
	require.Equal(t, "ONE", q.Answer)
	require.Equal(t, now, *q.RevealedAt, "a second reveal keeps the first time")
}

func TestAdvance(t *testing.T) {
	r := &domain.Room{Code: "ABC123"}
	mustCreate(t, r, "one")
	mustCreate(t, r, "two")

	require.NoError(t, question.Advance(r), "no current question is a no-op")
	require.Equal(t, "", r.CurrentQuestionID)

	require.NoError(t, question.Select(r, "q1"))
	require.NoError(t, question.Advance(r))
	require.Equal(t, "q2", r.CurrentQuestionID)

	err := question.Advance(r)
	require.True(t, errors.Is(err, errors.CodeFailedPrecondition))
	require.Equal(t, "q2", r.CurrentQuestionID)
}

func TestCheck(t *testing.T) {
	q := &domain.Question{Answer: "WAVE"}

	assert.True(t, question.Check(" wave ", q))
	assert.True(t, question.Check("WAVE", q))
	assert.Equal(t, question.Check(" wave ", q), question.Check("WAVE", q))
	assert.False(t, question.Check("WAV", q))
	assert.False(t, question.Check("W AVE", q))
}

func mustCreate(t *testing.T, r *domain.Room, answer string) string {
	t.Helper()

	q, err := question.Create(r, question.CreateRequest{Text: "prompt " + answer, Answer: answer, Points: 10, Now: now})
	require.NoError(t, err)
	return q.QuestionID
}
