package payments

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, userID int64, tariff string, amount int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (user_id, tariff, amount, status)
		VALUES ($1,$2,$3,'completed')
		RETURNING id
	`, userID, tariff, amount).Scan(&id)
	return id, err
}

func (r *Repo) TotalRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'completed'`).Scan(&total)
	return total, err
}
