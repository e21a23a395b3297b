package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mivanov/postline-bot/internal/bot"
	"github.com/mivanov/postline-bot/internal/cache"
	"github.com/mivanov/postline-bot/internal/config"
	"github.com/mivanov/postline-bot/internal/dialog"
	"github.com/mivanov/postline-bot/internal/domain/channels"
	"github.com/mivanov/postline-bot/internal/domain/payments"
	"github.com/mivanov/postline-bot/internal/domain/posts"
	"github.com/mivanov/postline-bot/internal/domain/tariffs"
	"github.com/mivanov/postline-bot/internal/domain/users"
	"github.com/mivanov/postline-bot/internal/infra/db"
	httpx "github.com/mivanov/postline-bot/internal/infra/http"
	"github.com/mivanov/postline-bot/internal/infra/logger"
	"github.com/mivanov/postline-bot/internal/infra/metrics"
	paysvc "github.com/mivanov/postline-bot/internal/infra/payments"
	"github.com/mivanov/postline-bot/internal/scheduler"
	"github.com/mivanov/postline-bot/internal/service/expiry"
	"github.com/mivanov/postline-bot/internal/service/planner"
	"github.com/mivanov/postline-bot/internal/service/publisher"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	// scheduled_at хранится без таймзоны, поэтому вся арифметика
	// времени должна идти в одной зоне
	if cfg.App.Timezone != "" {
		loc, err := time.LoadLocation(cfg.App.Timezone)
		if err != nil {
			log.Error("bad timezone", "tz", cfg.App.Timezone, "err", err)
			return
		}
		time.Local = loc
	}

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	usersRepo := users.NewRepo(pool)
	channelsRepo := channels.NewRepo(pool)
	postsRepo := posts.NewRepo(pool)
	paymentsRepo := payments.NewRepo(pool)
	tariffRepo := tariffs.NewRepo(pool)

	var (
		tariffGet        bot.TariffReader      = tariffRepo
		tariffInvalidate bot.TariffInvalidator // nil при выключенном Redis
	)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis ping failed", "addr", cfg.Redis.Addr, "err", err)
			return
		}
		tc := cache.NewTariffCache(rdb, cfg.Redis.TTL, tariffRepo)
		tariffGet = tc
		tariffInvalidate = tc
		log.Info("tariff cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram auth failed", "err", err)
		return
	}
	log.Info("authorized", "bot", api.Self.UserName)

	sessions := dialog.NewStore()
	pl := planner.New(sessions, usersRepo, tariffGet, channelsRepo, postsRepo)
	pay := paysvc.NewService(cfg.Payments.BaseURL)

	b := bot.New(api, log, cfg.Telegram.AdminChatID,
		usersRepo, channelsRepo, postsRepo, paymentsRepo, tariffRepo,
		tariffGet, tariffInvalidate, pl, sessions, pay)

	payHandler := paysvc.NewHandler(log, tariffGet, usersRepo, paymentsRepo)
	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, payHandler)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	sweeps := startSweeps(ctx, cfg, log, b, postsRepo, usersRepo, tariffRepo, sessions)

	if err := b.Run(ctx, 30); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bot stopped", "err", err)
	}

	for _, s := range sweeps {
		s.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

func startSweeps(ctx context.Context, cfg config.Config, log *slog.Logger, b *bot.Bot,
	postsRepo *posts.Repo, usersRepo *users.Repo, tariffRepo *tariffs.Repo,
	sessions *dialog.Store) []*scheduler.Sweep {

	pub := publisher.New(postsRepo, b, cfg.Publisher.Lookahead, log)
	exp := expiry.New(usersRepo, tariffRepo, b, log)

	specs := []struct {
		name     string
		interval time.Duration
		tick     func(context.Context)
	}{
		{"publisher", cfg.Publisher.Interval, pub.Tick},
		{"expiry", cfg.Expiry.Interval, exp.Tick},
		{"dialog-prune", cfg.Dialog.IdleTimeout, func(context.Context) {
			if n := sessions.PruneIdle(cfg.Dialog.IdleTimeout); n > 0 {
				metrics.DialogsPruned.Add(float64(n))
				log.Info("pruned idle dialogs", "count", n)
			}
		}},
	}

	var sweeps []*scheduler.Sweep
	for _, sp := range specs {
		s, err := scheduler.New(sp.name, sp.interval, log, sp.tick)
		if err != nil {
			log.Error("sweep init failed", "name", sp.name, "err", err)
			continue
		}
		s.Start(ctx)
		sweeps = append(sweeps, s)
	}
	return sweeps
}
