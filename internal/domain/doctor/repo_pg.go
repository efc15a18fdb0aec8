package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medrx/medrx/internal/platform/db"
)

const uniqueUserConstraint = "doctor_profiles_user_id_key"

type profileRepoPG struct {
	pool *pgxpool.Pool
}

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

func (r *profileRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const profileCols = `id, user_id, specialization, availability_from, availability_to, location, created_at, updated_at`

func (r *profileRepoPG) scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Specialization, &p.AvailableFrom, &p.AvailableTo,
		&p.Location, &p.CreatedAt, &p.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan doctor profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepoPG) Create(ctx context.Context, p *Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_profiles (id, user_id, specialization, availability_from, availability_to, location, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.UserID, p.Specialization, p.AvailableFrom, p.AvailableTo, p.Location, p.CreatedAt, p.UpdatedAt)
	if db.IsUniqueViolation(err, uniqueUserConstraint) {
		return ErrProfileExists
	}
	if err != nil {
		return fmt.Errorf("insert doctor profile: %w", err)
	}
	return nil
}

func (r *profileRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return r.scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM doctor_profiles WHERE user_id = $1`, userID))
}

func (r *profileRepoPG) Update(ctx context.Context, p *Profile) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor_profiles SET specialization=$2, availability_from=$3, availability_to=$4,
			location=$5, updated_at=$6
		WHERE id = $1`,
		p.ID, p.Specialization, p.AvailableFrom, p.AvailableTo, p.Location, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update doctor profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete doctor profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepoPG) List(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor_profiles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctor profiles: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+profileCols+` FROM doctor_profiles ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctor profiles: %w", err)
	}
	defer rows.Close()

	var items []*Profile
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate doctor profiles: %w", err)
	}
	return items, total, nil
}
