package tariffs

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Get возвращает тариф по имени. При промахе — тариф free,
// чтобы у любого пользователя всегда был валидный набор лимитов.
func (r *Repo) Get(ctx context.Context, name string) (Tariff, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT tariff_name, price, channels_limit, posts_per_day, duration_days
		FROM tariff_settings WHERE tariff_name = $1
	`, name)

	var t Tariff
	if err := row.Scan(&t.Name, &t.Price, &t.ChannelsLimit, &t.PostsPerDay, &t.DurationDays); err != nil {
		if err == pgx.ErrNoRows {
			return Default(), nil
		}
		return Tariff{}, err
	}
	return t, nil
}

// SetPrice возвращает false, если тариф не найден. Конкурентные
// обновления цены — last-write-wins.
func (r *Repo) SetPrice(ctx context.Context, name string, price int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tariff_settings SET price = $2 WHERE tariff_name = $1`, name, price)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) List(ctx context.Context) ([]Tariff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tariff_name, price, channels_limit, posts_per_day, duration_days
		FROM tariff_settings ORDER BY price
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tariff
	for rows.Next() {
		var t Tariff
		if err := rows.Scan(&t.Name, &t.Price, &t.ChannelsLimit, &t.PostsPerDay, &t.DurationDays); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) SetPrivateChannel(ctx context.Context, tariffName string, channelID int64, inviteLink string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO private_channels (tariff_name, channel_id, invite_link)
		VALUES ($1,$2,$3)
		ON CONFLICT (tariff_name) DO UPDATE SET
		  channel_id=$2, invite_link=$3
	`, tariffName, channelID, inviteLink)
	return err
}

func (r *Repo) GetPrivateChannel(ctx context.Context, tariffName string) (*PrivateChannel, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT tariff_name, channel_id, invite_link
		FROM private_channels WHERE tariff_name = $1
	`, tariffName)

	var pc PrivateChannel
	if err := row.Scan(&pc.TariffName, &pc.ChannelID, &pc.InviteLink); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &pc, nil
}
