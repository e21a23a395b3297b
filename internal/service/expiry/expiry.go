package expiry

import (
	"context"
	"log/slog"
	"time"

	"github.com/mivanov/postline-bot/internal/domain/tariffs"
	"github.com/mivanov/postline-bot/internal/domain/users"
	"github.com/mivanov/postline-bot/internal/infra/metrics"
)

type UserStore interface {
	ListExpired(ctx context.Context, now time.Time) ([]users.User, error)
	SetTariff(ctx context.Context, tgID int64, tariff string, durationDays int) error
}

type TariffStore interface {
	GetPrivateChannel(ctx context.Context, tariffName string) (*tariffs.PrivateChannel, error)
}

// MembershipRevoker выгоняет пользователя из закрытого канала тарифа.
type MembershipRevoker interface {
	KickMember(ctx context.Context, channelID, userID int64) error
}

// Sweeper понижает просроченные подписки до free.
type Sweeper struct {
	users   UserStore
	tariffs TariffStore
	revoker MembershipRevoker
	log     *slog.Logger

	now func() time.Time
}

func New(usersStore UserStore, tariffStore TariffStore, revoker MembershipRevoker, log *slog.Logger) *Sweeper {
	return &Sweeper{
		users:   usersStore,
		tariffs: tariffStore,
		revoker: revoker,
		log:     log,
		now:     time.Now,
	}
}

// Tick идемпотентен: понижение делает пользователя free, и повторный
// прогон его уже не видит. Отзыв доступа к закрытому каналу —
// best-effort: ошибка транспорта не откатывает смену тарифа.
func (s *Sweeper) Tick(ctx context.Context) {
	expired, err := s.users.ListExpired(ctx, s.now())
	if err != nil {
		s.log.Error("list expired subscriptions failed", "err", err)
		return
	}

	for _, u := range expired {
		oldTariff := u.Tariff
		if err := s.users.SetTariff(ctx, u.TelegramID, tariffs.FreeName, 0); err != nil {
			s.log.Error("demote to free failed", "user", u.TelegramID, "err", err)
			continue
		}
		metrics.SubscriptionsExpired.Inc()
		s.log.Info("subscription expired, demoted to free",
			"user", u.TelegramID, "was", oldTariff)

		s.revoke(ctx, u.TelegramID, oldTariff)
	}
}

func (s *Sweeper) revoke(ctx context.Context, userID int64, tariffName string) {
	pc, err := s.tariffs.GetPrivateChannel(ctx, tariffName)
	if err != nil {
		s.log.Error("private channel lookup failed", "tariff", tariffName, "err", err)
		return
	}
	if pc == nil {
		return
	}
	if err := s.revoker.KickMember(ctx, pc.ChannelID, userID); err != nil {
		s.log.Warn("private channel revocation failed",
			"user", userID, "channel", pc.ChannelID, "err", err)
	}
}
