package storage

import (
	"context"
	"time"
)

// Warning is one recorded moderation warning. A zero ExpiresAt never
// expires.
type Warning struct {
	ID        string
	GuildID   string
	UserID    string
	Category  string
	Reason    string
	Strikes   int
	Evidence  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (w Warning) Active(now time.Time) bool {
	return w.ExpiresAt.IsZero() || w.ExpiresAt.After(now)
}

// CategoryStrikes aggregates active warnings of one category.
type CategoryStrikes struct {
	Category string
	Warnings int
	Strikes  int
}

func (s *Store) AddWarning(ctx context.Context, w Warning) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO warnings (id, guild_id, user_id, category, reason, strikes, evidence, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), w.ID, w.GuildID, w.UserID, w.Category, w.Reason, w.Strikes, w.Evidence, w.CreatedAt.Unix(), unixOrZero(w.ExpiresAt))
	return err
}

// ActiveStrikes sums the strikes of every unexpired warning for a member.
func (s *Store) ActiveStrikes(ctx context.Context, guildID, userID string, now time.Time) (int, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COALESCE(SUM(strikes), 0)
		FROM warnings
		WHERE guild_id = ? AND user_id = ? AND (expires_at = 0 OR expires_at > ?)
	`), guildID, userID, now.Unix())

	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return int(total), nil
}

func (s *Store) StrikesByCategory(ctx context.Context, guildID, userID string, now time.Time) ([]CategoryStrikes, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT category, COUNT(*), COALESCE(SUM(strikes), 0)
		FROM warnings
		WHERE guild_id = ? AND user_id = ? AND (expires_at = 0 OR expires_at > ?)
		GROUP BY category
		ORDER BY category
	`), guildID, userID, now.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryStrikes
	for rows.Next() {
		var row CategoryStrikes
		var warnings, strikes int64
		if err := rows.Scan(&row.Category, &warnings, &strikes); err != nil {
			return nil, err
		}
		row.Warnings = int(warnings)
		row.Strikes = int(strikes)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) ListWarnings(ctx context.Context, guildID, userID string, limit int) ([]Warning, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, guild_id, user_id, category, reason, strikes, evidence, created_at, expires_at
		FROM warnings
		WHERE guild_id = ? AND user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`), guildID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Warning
	for rows.Next() {
		var w Warning
		var created, expires int64
		if err := rows.Scan(&w.ID, &w.GuildID, &w.UserID, &w.Category, &w.Reason, &w.Strikes, &w.Evidence, &created, &expires); err != nil {
			return nil, err
		}
		w.CreatedAt = time.Unix(created, 0)
		if expires > 0 {
			w.ExpiresAt = time.Unix(expires, 0)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// PruneWarnings deletes warnings that expired before cutoff.
func (s *Store) PruneWarnings(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM warnings WHERE expires_at > 0 AND expires_at <= ?
	`), cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
