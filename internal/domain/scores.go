package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type ScoreEntry struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Scores maps participant names to points and remembers insertion order.
// It is encoded as a JSON object whose key order is the insertion order.
type Scores []ScoreEntry

func (s Scores) Get(name string) (int, bool) {
	for _, e := range s {
		if e.Name == name {
			return e.Points, true
		}
	}
	return 0, false
}

// Add adds points to name, appending a zero entry first when name has none.
func (s *Scores) Add(name string, points int) int {
	for i := range *s {
		if (*s)[i].Name == name {
			(*s)[i].Points += points
			return (*s)[i].Points
		}
	}
	*s = append(*s, ScoreEntry{Name: name, Points: points})
	return points
}

func (s Scores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", e.Points)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Scores) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	t, err := dec.Token()
	if err != nil {
		return err
	}
	if t == nil {
		*s = nil
		return nil
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("scores: expected object, got %v", t)
	}

	out := Scores{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := kt.(string)
		if !ok {
			return fmt.Errorf("scores: expected name, got %v", kt)
		}

		var points int
		if err := dec.Decode(&points); err != nil {
			return fmt.Errorf("scores: points of %q: %w", name, err)
		}

		// A repeated key keeps its first position and the last value.
		replaced := false
		for i := range out {
			if out[i].Name == name {
				out[i].Points = points
				replaced = true
			}
		}
		if !replaced {
			out = append(out, ScoreEntry{Name: name, Points: points})
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}
