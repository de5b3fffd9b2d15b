package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/takudzwam/pamsika/internal/domain"
)

// UserStore implements domain.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new UserStore backed by the given connection pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Upsert inserts or replaces a user profile.
func (s *UserStore) Upsert(ctx context.Context, p domain.UserProfile) error {
	const query = `
		INSERT INTO users (id, kind, name, phone, whatsapp, rating, category, home_lat, home_lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			whatsapp = EXCLUDED.whatsapp,
			rating = EXCLUDED.rating,
			category = EXCLUDED.category,
			home_lat = EXCLUDED.home_lat,
			home_lng = EXCLUDED.home_lng`
	_, err := s.pool.Exec(ctx, query,
		p.ID, string(p.Kind), p.Name, p.Phone, p.WhatsApp,
		p.Rating, p.Category, p.Home.Lat, p.Home.Lng,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert user %s: %w", p.ID, err)
	}
	return nil
}

// GetByID retrieves a profile by id. It returns domain.ErrNotFound when no
// row exists.
func (s *UserStore) GetByID(ctx context.Context, id string) (domain.UserProfile, error) {
	const query = `
		SELECT id, kind, name, phone, whatsapp, rating, category, home_lat, home_lng, created_at
		FROM users WHERE id = $1`

	p, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserProfile{}, domain.ErrNotFound
		}
		return domain.UserProfile{}, fmt.Errorf("postgres: get user %s: %w", id, err)
	}
	return p, nil
}

// ListSellers returns every seller profile.
func (s *UserStore) ListSellers(ctx context.Context) ([]domain.UserProfile, error) {
	const query = `
		SELECT id, kind, name, phone, whatsapp, rating, category, home_lat, home_lng, created_at
		FROM users WHERE kind = 'seller' ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sellers: %w", err)
	}
	defer rows.Close()

	var out []domain.UserProfile
	for rows.Next() {
		p, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan seller: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list sellers: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (domain.UserProfile, error) {
	var p domain.UserProfile
	var kind string
	err := row.Scan(
		&p.ID, &kind, &p.Name, &p.Phone, &p.WhatsApp,
		&p.Rating, &p.Category, &p.Home.Lat, &p.Home.Lng, &p.CreatedAt,
	)
	if err != nil {
		return domain.UserProfile{}, err
	}
	p.Kind = domain.ClientKind(kind)
	return p, nil
}

// Compile-time interface check.
var _ domain.UserStore = (*UserStore)(nil)
