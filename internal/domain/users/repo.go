package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrQuotaExceeded — дневной лимит постов по тарифу исчерпан.
var ErrQuotaExceeded = errors.New("users: daily post quota exceeded")

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) GetByTelegramID(ctx context.Context, tgID int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT telegram_id, username, first_name, last_name, tariff,
		       subscription_end, posts_today, last_post_date, created_at
		FROM users WHERE telegram_id = $1
	`, tgID)

	var u User
	if err := row.Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&u.Tariff, &u.SubscriptionEnd, &u.PostsToday, &u.LastPostDate, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// UpsertFromTelegram — регистрация при первом контакте. Повторный /start
// обновляет только профиль, тариф и счётчики не трогаем.
func (r *Repo) UpsertFromTelegram(ctx context.Context, tg Telegram) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (telegram_id)
		DO UPDATE SET
			username   = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name
		RETURNING telegram_id, username, first_name, last_name, tariff,
		          subscription_end, posts_today, last_post_date, created_at
	`, tg.ID, tg.Username, tg.FirstName, tg.LastName)

	var u User
	if err := row.Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&u.Tariff, &u.SubscriptionEnd, &u.PostsToday, &u.LastPostDate, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetTariff ставит тариф и пересчитывает срок подписки.
// durationDays == 0 означает бессрочный тариф (free).
func (r *Repo) SetTariff(ctx context.Context, tgID int64, tariff string, durationDays int) error {
	var end *time.Time
	if durationDays > 0 {
		t := time.Now().AddDate(0, 0, durationDays)
		end = &t
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET tariff = $2, subscription_end = $3 WHERE telegram_id = $1
	`, tgID, tariff, end)
	return err
}

// CheckDailyQuota не мутирует состояние: потребление квоты происходит
// только в RecordSubmission, при коммите поста.
func (r *Repo) CheckDailyQuota(ctx context.Context, tgID int64, limit int) error {
	u, err := r.GetByTelegramID(ctx, tgID)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	if u.PostedToday(time.Now()) >= limit {
		return ErrQuotaExceeded
	}
	return nil
}

// RecordSubmission — единственная точка расхода дневной квоты:
// атомарный инкремент либо сброс на 1 при смене даты.
func (r *Repo) RecordSubmission(ctx context.Context, tgID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET posts_today = CASE
		        WHEN last_post_date = current_date THEN posts_today + 1
		        ELSE 1
		    END,
		    last_post_date = current_date
		WHERE telegram_id = $1
	`, tgID)
	return err
}

// ListExpired — платные тарифы с истёкшей подпиской.
func (r *Repo) ListExpired(ctx context.Context, now time.Time) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT telegram_id, username, first_name, last_name, tariff,
		       subscription_end, posts_today, last_post_date, created_at
		FROM users
		WHERE tariff <> 'free' AND subscription_end IS NOT NULL AND subscription_end < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *Repo) ListAll(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT telegram_id, username, first_name, last_name, tariff,
		       subscription_end, posts_today, last_post_date, created_at
		FROM users ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// CountByTariff — распределение пользователей по тарифам для админки.
func (r *Repo) CountByTariff(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT tariff, COUNT(*) FROM users GROUP BY tariff`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var tariff string
		var n int
		if err := rows.Scan(&tariff, &n); err != nil {
			return nil, err
		}
		out[tariff] = n
	}
	return out, rows.Err()
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
			&u.Tariff, &u.SubscriptionEnd, &u.PostsToday, &u.LastPostDate, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
