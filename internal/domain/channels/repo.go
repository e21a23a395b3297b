package channels

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrLimitExceeded — достигнут лимит каналов по тарифу.
	ErrLimitExceeded = errors.New("channels: tariff channel limit reached")
	// ErrAlreadyRegistered — канал уже привязан (к этому или другому пользователю).
	ErrAlreadyRegistered = errors.New("channels: channel already registered")
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Add проверяет лимит и вставляет канал в одной транзакции.
// Блокировка строки пользователя сериализует конкурентные добавления
// одного аккаунта, иначе между COUNT и INSERT возможен перелимит.
func (r *Repo) Add(ctx context.Context, userID int64, channelID, title string, limit int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM users WHERE telegram_id = $1 FOR UPDATE`, userID); err != nil {
		return err
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_channels WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return err
	}
	if count >= limit {
		return ErrLimitExceeded
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO user_channels (user_id, channel_id, title) VALUES ($1,$2,$3)
	`, userID, channelID, title); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyRegistered
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Channel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, channel_id, title, added_at
		FROM user_channels WHERE user_id = $1
		ORDER BY added_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ID, &c.UserID, &c.ChannelID, &c.Title, &c.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Remove(ctx context.Context, userID int64, channelID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_channels WHERE user_id = $1 AND channel_id = $2`, userID, channelID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
