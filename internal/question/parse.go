package question

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/victornm/wordquiz/internal/domain"
	"github.com/victornm/wordquiz/internal/errors"
)

// ParseHelpingLetters parses 1-based "position,letter" pairs separated by ';' or '|' into 0-based
// helping letters sorted by position. Malformed pairs are dropped: a non-numeric or out of range
// position, or a letter that is not a single character. A later pair for the same position
// replaces an earlier one.
func ParseHelpingLetters(pairs string, answerLength int) []domain.HelpingLetter {
	byPos := make(map[int]string)

	fields := strings.FieldsFunc(pairs, func(r rune) bool { return r == ';' || r == '|' })
	for _, pair := range fields {
		posRaw, letter, ok := strings.Cut(pair, ",")
		if !ok {
			continue
		}

		pos, err := strconv.Atoi(strings.TrimSpace(posRaw))
		if err != nil || pos < 1 || pos > answerLength {
			continue
		}

		letter = strings.ToUpper(strings.TrimSpace(letter))
		if utf8.RuneCountInString(letter) != 1 {
			continue
		}

		byPos[pos-1] = letter
	}

	letters := make([]domain.HelpingLetter, 0, len(byPos))
	for pos, letter := range byPos {
		letters = append(letters, domain.HelpingLetter{Position: pos, Letter: letter})
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i].Position < letters[j].Position })

	return letters
}

// ParsePoints parses points typed by a host. Blank input means DefaultPoints.
func ParsePoints(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPoints, nil
	}

	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Validation("invalid points: %q", s)
	}
	if p < 1 {
		return 0, errors.Validation("points must be at least 1: got %d", p)
	}

	return p, nil
}
