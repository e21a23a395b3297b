package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mivanov/postline-bot/internal/dialog"
	"github.com/mivanov/postline-bot/internal/domain/channels"
	"github.com/mivanov/postline-bot/internal/domain/payments"
	"github.com/mivanov/postline-bot/internal/domain/posts"
	"github.com/mivanov/postline-bot/internal/domain/tariffs"
	"github.com/mivanov/postline-bot/internal/domain/users"
	paysvc "github.com/mivanov/postline-bot/internal/infra/payments"
	"github.com/mivanov/postline-bot/internal/service/planner"
)

// TariffReader — чтение тарифа; в проде это кэш поверх репозитория.
type TariffReader interface {
	Get(ctx context.Context, name string) (tariffs.Tariff, error)
}

// TariffInvalidator сбрасывает кэш после админских правок цены.
type TariffInvalidator interface {
	Invalidate(ctx context.Context, name string) error
}

type Bot struct {
	api       *tgbotapi.BotAPI
	log       *slog.Logger
	adminChat int64

	users      *users.Repo
	channels   *channels.Repo
	posts      *posts.Repo
	payments   *payments.Repo
	tariffRepo *tariffs.Repo

	tariffGet        TariffReader
	tariffInvalidate TariffInvalidator // nil, если кэш выключен

	planner  *planner.Planner
	sessions *dialog.Store
	pay      *paysvc.Service
}

func New(api *tgbotapi.BotAPI, log *slog.Logger, adminChatID int64,
	usersRepo *users.Repo, channelsRepo *channels.Repo, postsRepo *posts.Repo,
	paymentsRepo *payments.Repo, tariffRepo *tariffs.Repo,
	tariffGet TariffReader, tariffInvalidate TariffInvalidator,
	pl *planner.Planner, sessions *dialog.Store, pay *paysvc.Service) *Bot {

	return &Bot{
		api: api, log: log, adminChat: adminChatID,
		users: usersRepo, channels: channelsRepo, posts: postsRepo,
		payments: paymentsRepo, tariffRepo: tariffRepo,
		tariffGet: tariffGet, tariffInvalidate: tariffInvalidate,
		planner: pl, sessions: sessions, pay: pay,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				b.onMessage(ctx, upd.Message)
			} else if upd.CallbackQuery != nil {
				b.onCallback(ctx, upd.CallbackQuery)
			}
		}
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Error("answer callback failed", "err", err)
	}
}

func (b *Bot) editText(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID, text,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	b.send(edit)
}

func (b *Bot) editTextKB(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb))
}

func (b *Bot) isAdmin(tgID int64) bool {
	return tgID == b.adminChat
}
