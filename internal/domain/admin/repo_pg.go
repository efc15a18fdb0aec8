package admin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medrx/medrx/internal/domain/scheduling"
	"github.com/medrx/medrx/internal/platform/auth"
	"github.com/medrx/medrx/internal/platform/db"
)

type statsRepoPG struct {
	pool *pgxpool.Pool
}

func NewStatsRepoPG(pool *pgxpool.Pool) StatsRepository {
	return &statsRepoPG{pool: pool}
}

func (r *statsRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

// One statement, so every count comes from the same snapshot.
const countsQuery = `
	SELECT 'user' AS kind, role AS key, COUNT(*) FROM users GROUP BY role
	UNION ALL
	SELECT 'appointment', status, COUNT(*) FROM appointments GROUP BY status
	UNION ALL
	SELECT 'prescription', '', COUNT(*) FROM prescriptions`

func (r *statsRepoPG) Counts(ctx context.Context) (*Counts, error) {
	rows, err := r.conn(ctx).Query(ctx, countsQuery)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	c := NewCounts()
	for rows.Next() {
		var kind, key string
		var n int
		if err := rows.Scan(&kind, &key, &n); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		switch kind {
		case "user":
			c.UsersByRole[auth.Role(key)] = n
		case "appointment":
			c.AppointmentsByStatus[scheduling.Status(key)] = n
		case "prescription":
			c.Prescriptions = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return c, nil
}
