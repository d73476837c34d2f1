// Package client persists the identity of one host or participant client between invocations.
package client

import (
	"context"
	"strconv"
	"strings"

	"github.com/victornm/wordquiz/internal/game"
	"github.com/victornm/wordquiz/internal/store"
)

const (
	keyCurrentHostRoom = "currentHostRoom"
	keyPlayerName      = "playerName"
	keyPlayerRoomCode  = "playerRoomCode"
	keyFlashSeqPrefix  = "lastWrongFlashSeq_"
)

// State is the client-local keyspace of a single client.
type State struct {
	local store.Local
}

func NewState(l store.Local) *State {
	return &State{local: l}
}

// Host returns the room this client hosts, if any.
func (s *State) Host(ctx context.Context) (game.Host, bool, error) {
	code, ok, err := s.local.Get(ctx, keyCurrentHostRoom)
	if err != nil || !ok || code == "" {
		return game.Host{}, false, err
	}
	return game.Host{RoomCode: code}, true, nil
}

func (s *State) SetHost(ctx context.Context, h game.Host) error {
	return s.local.Set(ctx, keyCurrentHostRoom, h.RoomCode)
}

func (s *State) ClearHost(ctx context.Context) error {
	return s.local.Delete(ctx, keyCurrentHostRoom)
}

// Player returns the participant identity of this client. Both name and room must be set.
func (s *State) Player(ctx context.Context) (game.Player, bool, error) {
	name, ok, err := s.local.Get(ctx, keyPlayerName)
	if err != nil || !ok {
		return game.Player{}, false, err
	}
	code, ok, err := s.local.Get(ctx, keyPlayerRoomCode)
	if err != nil || !ok {
		return game.Player{}, false, err
	}
	if name == "" || code == "" {
		return game.Player{}, false, nil
	}
	return game.Player{RoomCode: code, Name: name}, true, nil
}

func (s *State) SetPlayer(ctx context.Context, p game.Player) error {
	if err := s.local.Set(ctx, keyPlayerName, p.Name); err != nil {
		return err
	}
	return s.local.Set(ctx, keyPlayerRoomCode, p.RoomCode)
}

// ClearPlayer forgets the participant identity and the flashes seen in its room.
func (s *State) ClearPlayer(ctx context.Context) error {
	code, ok, err := s.local.Get(ctx, keyPlayerRoomCode)
	if err != nil {
		return err
	}
	if ok && code != "" {
		if err := s.local.DeletePrefix(ctx, flashRoomPrefix(code)); err != nil {
			return err
		}
	}

	if err := s.local.Delete(ctx, keyPlayerName); err != nil {
		return err
	}
	return s.local.Delete(ctx, keyPlayerRoomCode)
}

// LastFlashSeq returns the last wrong-answer signal this client acted on for a question of a
// room, or 0.
func (s *State) LastFlashSeq(ctx context.Context, roomCode, questionID string) (int64, error) {
	v, ok, err := s.local.Get(ctx, flashKey(roomCode, questionID))
	if err != nil || !ok {
		return 0, err
	}

	seq, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		// An unreadable value is treated as never seen.
		return 0, nil
	}
	return seq, nil
}

func (s *State) SetLastFlashSeq(ctx context.Context, roomCode, questionID string, seq int64) error {
	return s.local.Set(ctx, flashKey(roomCode, questionID), strconv.FormatInt(seq, 10))
}

func flashRoomPrefix(roomCode string) string {
	return keyFlashSeqPrefix + roomCode + "_"
}

func flashKey(roomCode, questionID string) string {
	return flashRoomPrefix(roomCode) + questionID
}
