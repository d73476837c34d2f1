//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/victornm/wordquiz/internal/api"
	"github.com/victornm/wordquiz/internal/api/quizv1"
	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/telemetry"
)

const (
	httpAddr = "http://localhost:8080"
	grpcAddr = "localhost:8081"
	prefix   = "wordquiz"
)

func TestQuiz(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		qc = makeQuizClient(t)
		wg = new(sync.WaitGroup)
	)

	var (
		room    domain.Room
		answers = []string{"wave", "tide", "reef"}
		users   = []string{"u1", "u2", "u3"}
	)

	// Create the room and its questions
	post(t, "/v1/rooms", map[string]any{"name": "Demo"}, &room)
	for i, a := range answers {
		post(t, "/v1/rooms/"+room.Code+"/questions", map[string]any{
			"question": fmt.Sprintf("Question %d", i+1),
			"answer":   a,
			"points":   10 * (i + 1),
		}, nil)
	}

	// Prepare Redis subscriber
	subscribeAsUser(t, makeRedis(t), wg, room.Code, "u1")

	for _, u := range users {
		_, err := qc.JoinRoom(ctx, &quizv1.JoinRoomRequest{Code: room.Code, Name: u})
		require.NoError(t, err)
	}

	post(t, "/v1/rooms/"+room.Code+"/start", nil, nil)
	put(t, "/v1/rooms/"+room.Code+"/current", map[string]any{"question_id": "q1"})

	// For each question, all users guess concurrently and the host awards the correct ones
	for qi, a := range answers {
		t.Logf("Starting question %d", qi+1)

		var (
			eg      errgroup.Group
			mu      sync.Mutex
			correct []string
		)
		for ui, u := range users {
			guess := a
			if ui == qi {
				guess = "wrong"
			}

			eg.Go(func() error {
				resp, err := qc.SubmitGuess(ctx, &quizv1.SubmitGuessRequest{Code: room.Code, Name: u, Guess: guess})
				if err != nil {
					return fmt.Errorf("user %q submit guess: %w", u, err)
				}

				t.Logf("User %q guessed %q: correct=%t", u, guess, resp.Correct)
				if resp.Correct {
					mu.Lock()
					correct = append(correct, u)
					mu.Unlock()
				}
				return nil
			})
		}

		require.NoError(t, eg.Wait())

		post(t, "/v1/rooms/"+room.Code+"/wrong", nil, nil)
		for _, u := range correct {
			post(t, "/v1/rooms/"+room.Code+"/scores", map[string]any{"player": u, "points": 10 * (qi + 1)}, nil)
		}
		post(t, "/v1/rooms/"+room.Code+"/reveal", nil, nil)

		time.Sleep(2 * time.Second)

		if qi < len(answers)-1 {
			post(t, "/v1/rooms/"+room.Code+"/advance", nil, nil)
		}
	}

	resp, err := qc.GetRoom(ctx, &quizv1.GetRoomRequest{Code: room.Code, Name: "u1"})
	require.NoError(t, err)
	t.Logf("u1 final score: %d", resp.View.Score)

	do(t, http.MethodDelete, "/v1/rooms/"+room.Code, nil, nil)

	wg.Wait()
}

func makeQuizClient(t *testing.T) *quizv1.QuizServiceClient {
	conn, err := grpc.NewClient(grpcAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		telemetry.GRPCClientInterceptor(slog.Default()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return quizv1.NewQuizServiceClient(conn)
}

func post(t *testing.T, path string, body, out any) {
	do(t, http.MethodPost, path, body, out)
}

func put(t *testing.T, path string, body any) {
	do(t, http.MethodPut, path, body, nil)
}

func do(t *testing.T, method, path string, body, out any) {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(method, httpAddr+path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Less(t, resp.StatusCode, 300, "%s %s", method, path)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func subscribeAsUser(t *testing.T, rc redis.UniversalClient, wg *sync.WaitGroup, code, u string) {
	wg.Add(1)
	sub := subscribeRedis(t, rc, api.PlayerChannel(prefix, code, u))
	go func() {
		defer wg.Done()

		for msg := range sub {
			var n struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				t.Logf("unmarshal notification: %v", err)
				continue
			}

			switch n.Event {
			case domain.EventNameLeaderboardUpdated:
				var l api.Leaderboard
				if err := json.Unmarshal(n.Data, &l); err != nil {
					t.Logf("unmarshal leaderboard: %v", err)
					continue
				}

				t.Logf("%s leaderboard:\n%s", u, formatLeaderboard(l))
			}
		}
	}()
}

func subscribeRedis(t *testing.T, rc redis.UniversalClient, channel string) <-chan *redis.Message {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	t.Cleanup(cancel)

	sub := rc.Subscribe(ctx, channel)
	t.Cleanup(func() { sub.Close() })

	c := make(chan *redis.Message)
	go func() {
		defer close(c)

		for {
			msg, err := sub.ReceiveMessage(ctx)
			if err != nil {
				t.Log(err)
				return
			}

			c <- msg
		}
	}()

	return c
}

func makeRedis(t *testing.T) redis.UniversalClient {
	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	t.Cleanup(func() { r.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Ping(ctx).Err(); err != nil {
		t.Fatal(err)
	}

	return r
}

func formatLeaderboard(l api.Leaderboard) string {
	var s string
	for _, e := range l.Entries {
		s += fmt.Sprintf("%d. %s: %d\n", e.Rank, e.Player, e.Points)
	}
	return s
}
