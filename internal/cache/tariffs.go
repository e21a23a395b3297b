package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mivanov/postline-bot/internal/domain/tariffs"
)

type TariffSource interface {
	Get(ctx context.Context, name string) (tariffs.Tariff, error)
}

// TariffCache — read-through кэш тарифов поверх Postgres. Тарифы
// читаются на каждый чих (квота, лимит каналов, карточка тарифа),
// а меняются редко.
type TariffCache struct {
	rdb *redis.Client
	ttl time.Duration
	src TariffSource
}

func NewTariffCache(rdb *redis.Client, ttl time.Duration, src TariffSource) *TariffCache {
	return &TariffCache{rdb: rdb, ttl: ttl, src: src}
}

func key(name string) string { return fmt.Sprintf("tariff:%s", name) }

func (c *TariffCache) Get(ctx context.Context, name string) (tariffs.Tariff, error) {
	raw, err := c.rdb.Get(ctx, key(name)).Bytes()
	if err == nil {
		var t tariffs.Tariff
		if jerr := json.Unmarshal(raw, &t); jerr == nil {
			return t, nil
		}
		// битое значение — перечитываем из источника
	} else if err != redis.Nil {
		// Redis недоступен — работаем напрямую из Postgres
		return c.src.Get(ctx, name)
	}

	t, err := c.src.Get(ctx, name)
	if err != nil {
		return tariffs.Tariff{}, err
	}

	if b, jerr := json.Marshal(t); jerr == nil {
		_ = c.rdb.Set(ctx, key(name), b, c.ttl).Err()
	}
	return t, nil
}

// Invalidate сбрасывает кэш после смены цены тарифа.
func (c *TariffCache) Invalidate(ctx context.Context, name string) error {
	return c.rdb.Del(ctx, key(name)).Err()
}
