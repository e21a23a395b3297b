package posts

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, p Post) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO scheduled_posts (user_id, channel_id, content_type, content, media_id, scheduled_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, p.UserID, p.ChannelID, string(p.Kind), p.Content, p.MediaID, p.ScheduledAt).Scan(&id)
	return id, err
}

// ListDue — pending-посты со сроком не позже until, раньше запланированные
// первыми. Нижней границы нет: после простоя бэклог выгребается целиком.
func (r *Repo) ListDue(ctx context.Context, until time.Time) ([]Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, channel_id, content_type, content, media_id,
		       scheduled_at, status, last_error, created_at
		FROM scheduled_posts
		WHERE status = 'pending' AND scheduled_at <= $1
		ORDER BY scheduled_at
	`, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		var p Post
		var kind, status string
		if err := rows.Scan(&p.ID, &p.UserID, &p.ChannelID, &kind, &p.Content,
			&p.MediaID, &p.ScheduledAt, &status, &p.LastError, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Kind = ContentKind(kind)
		p.Status = Status(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE scheduled_posts SET status = 'published' WHERE id = $1 AND status = 'pending'`, id)
	return err
}

// MarkFailed пишет причину для оператора; автоматического ретрая нет.
func (r *Repo) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE scheduled_posts SET status = 'failed', last_error = $2
		WHERE id = $1 AND status = 'pending'
	`, id, reason)
	return err
}

func (r *Repo) ListByUser(ctx context.Context, userID int64, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, channel_id, content_type, content, media_id,
		       scheduled_at, status, last_error, created_at
		FROM scheduled_posts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		var p Post
		var kind, status string
		if err := rows.Scan(&p.ID, &p.UserID, &p.ChannelID, &kind, &p.Content,
			&p.MediaID, &p.ScheduledAt, &status, &p.LastError, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Kind = ContentKind(kind)
		p.Status = Status(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ListAll(ctx context.Context) ([]Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, channel_id, content_type, content, media_id,
		       scheduled_at, status, last_error, created_at
		FROM scheduled_posts
		ORDER BY scheduled_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		var p Post
		var kind, status string
		if err := rows.Scan(&p.ID, &p.UserID, &p.ChannelID, &kind, &p.Content,
			&p.MediaID, &p.ScheduledAt, &status, &p.LastError, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Kind = ContentKind(kind)
		p.Status = Status(status)
		out = append(out, p)
	}
	return out, rows.Err()
}
