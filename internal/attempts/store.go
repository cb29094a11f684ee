// Package attempts persists pronunciation practice attempts and aggregates
// per-user statistics.
package attempts

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Attempt is one scored pronunciation attempt.
type Attempt struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	SubjectID      int64           `json:"subject_id"`
	RecognizedText string          `json:"recognized_text"`
	TargetWord     string          `json:"target_word"`
	IsCorrect      bool            `json:"is_correct"`
	Confidence     float64         `json:"confidence"`
	Accuracy       float64         `json:"accuracy"`
	Words          json.RawMessage `json:"words,omitempty"`
	AudioURL       string          `json:"audio_url,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Store is the pgx-backed attempt repository.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pronunciation_attempts (
	id              BIGSERIAL PRIMARY KEY,
	user_id         BIGINT NOT NULL,
	subject_id      BIGINT NOT NULL,
	recognized_text TEXT NOT NULL,
	target_word     TEXT NOT NULL,
	is_correct      BOOLEAN NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	accuracy        DOUBLE PRECISION NOT NULL,
	words           JSONB,
	audio_url       TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_attempts_user ON pronunciation_attempts (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_attempts_user_subject ON pronunciation_attempts (user_id, subject_id);
`

// Connect opens the pool, pings it, and ensures the schema exists.
func Connect(ctx context.Context, databaseURL string, log zerolog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Store{pool: pool, log: log}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Str("url", maskDSN(databaseURL)).Msg("attempts store connected")
	return s, nil
}

func (s *Store) Close() {
	s.log.Info().Msg("closing attempts store")
	s.pool.Close()
}

func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Insert stores one attempt and returns its id.
func (s *Store) Insert(ctx context.Context, a *Attempt) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO pronunciation_attempts
			(user_id, subject_id, recognized_text, target_word, is_correct, confidence, accuracy, words, audio_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		RETURNING id`,
		a.UserID, a.SubjectID, a.RecognizedText, a.TargetWord,
		a.IsCorrect, a.Confidence, a.Accuracy, a.Words, a.AudioURL,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListByUser returns a user's attempts, newest first. subjectID narrows to one
// subject when non-zero.
func (s *Store) ListByUser(ctx context.Context, userID, subjectID int64, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, subject_id, recognized_text, target_word,
		       is_correct, confidence, accuracy, words, COALESCE(audio_url, ''), created_at
		FROM pronunciation_attempts
		WHERE user_id = $1 AND ($2 = 0 OR subject_id = $2)
		ORDER BY created_at DESC
		LIMIT $3`,
		userID, subjectID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.SubjectID, &a.RecognizedText, &a.TargetWord,
			&a.IsCorrect, &a.Confidence, &a.Accuracy, &a.Words, &a.AudioURL, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Stats summarizes a user's practice history.
type Stats struct {
	TotalAttempts   int `json:"total_attempts"`
	CorrectAttempts int `json:"correct_attempts"`
	CorrectRate     int `json:"correct_rate"`
	AvgConfidence   int `json:"avg_confidence"`
	AvgAccuracy     int `json:"avg_accuracy"`
}

// Stats aggregates over all of a user's attempts.
func (s *Store) Stats(ctx context.Context, userID int64) (Stats, error) {
	var (
		total, correct  int
		avgConf, avgAcc float64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_correct),
		       COALESCE(AVG(confidence), 0),
		       COALESCE(AVG(accuracy), 0)
		FROM pronunciation_attempts
		WHERE user_id = $1`,
		userID,
	).Scan(&total, &correct, &avgConf, &avgAcc)
	if err != nil {
		return Stats{}, err
	}
	return buildStats(total, correct, avgConf, avgAcc), nil
}

// buildStats converts raw aggregates to the reported percentages. Rate and
// averages are 0 for an empty history, never NaN.
func buildStats(total, correct int, avgConf, avgAcc float64) Stats {
	st := Stats{TotalAttempts: total, CorrectAttempts: correct}
	if total > 0 {
		st.CorrectRate = roundPct(float64(correct) / float64(total) * 100)
	}
	st.AvgConfidence = roundPct(avgConf * 100)
	st.AvgAccuracy = roundPct(avgAcc)
	return st
}

func roundPct(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v + 0.5)
}

func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}
