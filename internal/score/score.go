// Package score keeps the per-room points ledger.
package score

import (
	"sort"
	"strconv"
	"strings"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
)

// Init gives every current participant a zero entry, keeping existing totals.
func Init(r *domain.Room) {
	for _, p := range r.Participants {
		if _, ok := r.PlayerScores.Get(p); !ok {
			r.PlayerScores.Add(p, 0)
		}
	}
}

// Award adds points to a participant's total and returns the new total. Players without an
// entry, such as late joiners, start from zero.
func Award(r *domain.Room, player string, points int) (int, error) {
	if points < 0 {
		return 0, errors.Validation("points must not be negative: got %d", points)
	}
	if !r.HasParticipant(player) {
		return 0, errors.NotFound("player not found: room=%s player=%s", r.Code, player)
	}

	return r.PlayerScores.Add(player, points), nil
}

// ParsePoints parses an award typed by a host. Zero is a valid award; there is no default.
func ParsePoints(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Validation("points are required")
	}

	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Validation("invalid points: %q", s)
	}
	if p < 0 {
		return 0, errors.Validation("points must not be negative: got %d", p)
	}

	return p, nil
}

// Ranked returns the scores highest first. Ties keep insertion order.
func Ranked(r *domain.Room) []domain.ScoreEntry {
	ranked := make([]domain.ScoreEntry, len(r.PlayerScores))
	copy(ranked, r.PlayerScores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Points > ranked[j].Points
	})
	return ranked
}

// Of returns a player's total, zero when the player has no entry.
func Of(r *domain.Room, player string) int {
	p, _ := r.PlayerScores.Get(player)
	return p
}
