package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/studio-booking/internal/db"
)

const ruleColumns = `id, day_of_week::int, to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'), is_active`

type PgRepository struct {
	conn db.Conn
}

func NewPgRepository(conn db.Conn) *PgRepository {
	return &PgRepository{conn: conn}
}

func scanRule(row pgx.Row) (*Rule, error) {
	var (
		r          Rule
		day        int
		start, end string
	)
	if err := row.Scan(&r.ID, &day, &start, &end, &r.Active); err != nil {
		return nil, err
	}

	var err error
	r.Weekday = time.Weekday(day)
	if r.Start, err = ParseClock(start); err != nil {
		return nil, fmt.Errorf("day %d start: %w", day, err)
	}
	if r.End, err = ParseClock(end); err != nil {
		return nil, fmt.Errorf("day %d end: %w", day, err)
	}
	return &r, nil
}

func collectRules(rows pgx.Rows) ([]Rule, error) {
	defer rows.Close()

	var result []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) ListRules(ctx context.Context) ([]Rule, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM availability_settings
		ORDER BY day_of_week ASC
	`)
	if err != nil {
		return nil, err
	}
	return collectRules(rows)
}

func (r *PgRepository) InsertRules(ctx context.Context, rules []Rule) ([]Rule, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	values := make([]string, 0, len(rules))
	args := make([]any, 0, len(rules)*4)
	for i, rule := range rules {
		n := i * 4
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4))
		args = append(args, int(rule.Weekday), rule.Start.String(), rule.End.String(), rule.Active)
	}

	rows, err := r.conn.Query(ctx, `
		INSERT INTO availability_settings (day_of_week, start_time, end_time, is_active)
		VALUES `+strings.Join(values, ", ")+`
		RETURNING `+ruleColumns, args...)
	if err != nil {
		return nil, fmt.Errorf("insert availability rules: %w", err)
	}
	inserted, err := collectRules(rows)
	if err != nil {
		return nil, fmt.Errorf("insert availability rules: %w", err)
	}
	return inserted, nil
}

func (r *PgRepository) UpsertRules(ctx context.Context, rules []Rule) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rule := range rules {
		_, err := tx.Exec(ctx, `
			INSERT INTO availability_settings (day_of_week, start_time, end_time, is_active)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (day_of_week) DO UPDATE
			SET start_time = EXCLUDED.start_time,
			    end_time   = EXCLUDED.end_time,
			    is_active  = EXCLUDED.is_active
		`, int(rule.Weekday), rule.Start.String(), rule.End.String(), rule.Active)
		if err != nil {
			return fmt.Errorf("upsert day %d: %w", rule.Weekday, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}
