package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/wordquiz/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	code       TEXT PRIMARY KEY,
	data       JSON NOT NULL,
	version    BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS room_signals (
	room_code   TEXT NOT NULL,
	seq         BIGINT NOT NULL,
	kind        TEXT NOT NULL,
	question_id TEXT NOT NULL,
	at          TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (room_code, seq)
);`

const codeUniqueViolation = "23505"

type PostgresConfig struct {
	DB          *pgxpool.Pool
	MaxAttempts int
}

// Postgres keeps one row per room. Mutate compares each touched room's version, so writers of
// different rooms never conflict.
type Postgres struct {
	db       *pgxpool.Pool
	attempts int
}

func NewPostgres(c PostgresConfig) *Postgres {
	return &Postgres{
		db:       c.DB,
		attempts: c.MaxAttempts,
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

func (s *Postgres) ReadAll(ctx context.Context) (Rooms, error) {
	rows, err := s.db.Query(ctx, `SELECT code, data FROM rooms;`)
	if err != nil {
		return nil, fmt.Errorf("store: read rooms: %w", err)
	}

	rooms := Rooms{}
	_, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (struct{}, error) {
		var (
			code string
			data []byte
		)
		if err := r.Scan(&code, &data); err != nil {
			return struct{}{}, err
		}

		var room domain.Room
		if err := json.Unmarshal(data, &room); err != nil {
			return struct{}{}, fmt.Errorf("decode room %s: %w", code, err)
		}
		rooms[code] = &room
		return struct{}{}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: read rooms: %w", err)
	}

	return rooms, nil
}

func (s *Postgres) WriteAll(ctx context.Context, rooms Rooms) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM rooms;`); err != nil {
		return fmt.Errorf("store: clear rooms: %w", err)
	}

	for code, r := range rooms { // TODO: Batch insert
		if err = insertRoom(ctx, tx, code, r); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Postgres) Mutate(ctx context.Context, fn func(rooms Rooms) error) error {
	return retry(ctx, s.attempts, func() error {
		rooms, err := s.ReadAll(ctx)
		if err != nil {
			return err
		}

		before, err := fingerprint(rooms)
		if err != nil {
			return err
		}
		versions := make(map[string]int64, len(rooms))
		for code, r := range rooms {
			versions[code] = r.Version
		}

		if err := fn(rooms); err != nil {
			return err
		}

		changed, err := bumpVersions(before, rooms)
		if err != nil {
			return err
		}

		var deleted []string
		for code := range before {
			if _, ok := rooms[code]; !ok {
				deleted = append(deleted, code)
			}
		}

		if len(changed) == 0 && len(deleted) == 0 {
			return nil
		}

		return s.commit(ctx, rooms, versions, changed, deleted)
	})
}

func (s *Postgres) commit(ctx context.Context, rooms Rooms, versions map[string]int64, changed, deleted []string) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	for _, code := range deleted {
		tag, err := tx.Exec(ctx, `DELETE FROM rooms WHERE code = $1 AND version = $2;`, code, versions[code])
		if err != nil {
			return fmt.Errorf("store: delete room %s: %w", code, err)
		}
		if tag.RowsAffected() == 0 {
			return errConflict
		}
	}

	for _, code := range changed {
		r := rooms[code]

		old, existed := versions[code]
		if !existed {
			if err := insertRoom(ctx, tx, code, r); err != nil {
				return err
			}
			continue
		}

		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("store: encode room %s: %w", code, err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE rooms SET data = $2, version = $3 WHERE code = $1 AND version = $4;`,
			code, data, r.Version, old,
		)
		if err != nil {
			return fmt.Errorf("store: update room %s: %w", code, err)
		}
		if tag.RowsAffected() == 0 {
			return errConflict
		}
	}

	return tx.Commit(ctx)
}

func insertRoom(ctx context.Context, tx pgx.Tx, code string, r *domain.Room) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: encode room %s: %w", code, err)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO rooms (code, data, version, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (code) DO NOTHING;`,
		code, data, r.Version, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert room %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return errConflict
	}

	return nil
}

func (s *Postgres) Emit(ctx context.Context, sig domain.Signal) (domain.Signal, error) {
	const stmt = `
INSERT INTO room_signals (room_code, seq, kind, question_id, at)
SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4 FROM room_signals WHERE room_code = $1
RETURNING seq;`

	err := retry(ctx, s.attempts, func() error {
		err := s.db.QueryRow(ctx, stmt, sig.RoomCode, sig.Kind, sig.QuestionID, sig.At).Scan(&sig.Seq)

		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			return errConflict
		}
		return err
	})
	if err != nil {
		return sig, fmt.Errorf("store: append signal: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`DELETE FROM room_signals WHERE room_code = $1 AND seq <= $2;`,
		sig.RoomCode, sig.Seq-maxSignals,
	)
	if err != nil {
		return sig, fmt.Errorf("store: trim signals: %w", err)
	}

	return sig, nil
}

func (s *Postgres) Latest(ctx context.Context, code string) (*domain.Signal, error) {
	const stmt = `
SELECT seq, kind, question_id, at
FROM room_signals
WHERE room_code = $1
ORDER BY seq DESC
LIMIT 1;`

	sig := domain.Signal{RoomCode: code}
	err := s.db.QueryRow(ctx, stmt, code).Scan(&sig.Seq, &sig.Kind, &sig.QuestionID, &sig.At)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest signal: %w", err)
	}

	return &sig, nil
}

func (s *Postgres) Clear(ctx context.Context, code string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM room_signals WHERE room_code = $1;`, code); err != nil {
		return fmt.Errorf("store: clear signals: %w", err)
	}
	return nil
}
