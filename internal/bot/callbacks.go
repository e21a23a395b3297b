package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mivanov/postline-bot/internal/domain/tariffs"
	"github.com/mivanov/postline-bot/internal/domain/users"
	"github.com/mivanov/postline-bot/internal/service/planner"
)

func (b *Bot) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	b.answerCallback(cb)

	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	tgID := cb.From.ID
	data := cb.Data

	switch {
	case data == "menu:main":
		b.editTextKB(chatID, msgID, "Главное меню:", mainMenuKeyboard())

	case data == "menu:plan":
		b.startPlanning(ctx, chatID, tgID, msgID)

	case data == "menu:channels":
		b.editText(chatID, msgID, "Ваши каналы ниже 👇")
		b.showChannels(ctx, chatID, tgID)

	case data == "menu:tariffs":
		b.showTariffs(ctx, chatID, msgID)

	case data == "menu:help":
		b.editText(chatID, msgID, helpText())

	case data == "nav:cancel":
		b.planner.Cancel(chatID)
		b.editText(chatID, msgID, "❌ Планирование отменено.")

	case strings.HasPrefix(data, "plan:ch:"):
		b.choosePlanChannel(ctx, chatID, tgID, msgID, strings.TrimPrefix(data, "plan:ch:"))

	case data == "plan:time:custom":
		if err := b.planner.AwaitCustomTime(chatID); err != nil {
			b.editText(chatID, msgID, "Сессия планирования не найдена. Начните заново: /start")
			return
		}
		b.editText(chatID, msgID,
			"📅 Введите дату и время в формате:\nГГГГ.ММ.ДД ЧЧ:ММ\n\n"+
				"Пример: 2026.12.31 18:30\n\nИли отправьте ❌ для отмены.")

	case strings.HasPrefix(data, "plan:time:"):
		b.choosePlanTime(chatID, msgID, strings.TrimPrefix(data, "plan:time:"))

	case data == "plan:confirm:yes", data == "plan:confirm:no":
		b.confirmPlan(ctx, chatID, tgID, msgID, data == "plan:confirm:yes")

	case strings.HasPrefix(data, "buy:"):
		b.showBuy(ctx, chatID, tgID, msgID)

	case strings.HasPrefix(data, "adm:"):
		b.onAdminCallback(ctx, cb)
	}
}

func (b *Bot) startPlanning(ctx context.Context, chatID, tgID int64, msgID int) {
	chs, err := b.planner.Start(ctx, chatID, tgID)
	switch {
	case errors.Is(err, users.ErrQuotaExceeded):
		b.editText(chatID, msgID,
			"❌ Лимит постов на сегодня исчерпан!\n\n"+
				"💳 Купите тариф для увеличения лимита: /tariffs")
		return
	case errors.Is(err, planner.ErrNoChannels):
		b.editText(chatID, msgID,
			"❌ У вас нет добавленных каналов!\n\n"+
				"✨ Добавьте канал: /add_channel [ID] [Название]")
		return
	case err != nil:
		b.log.Error("start planning failed", "user", tgID, "err", err)
		b.editText(chatID, msgID, "Ошибка: попробуйте позже")
		return
	}
	b.editTextKB(chatID, msgID, "📋 Выберите канал для публикации:", channelsKeyboard(chs))
}

func (b *Bot) choosePlanChannel(ctx context.Context, chatID, tgID int64, msgID int, channelID string) {
	err := b.planner.ChooseChannel(ctx, chatID, tgID, channelID)
	switch {
	case errors.Is(err, planner.ErrUnknownChannel):
		b.editText(chatID, msgID, "❌ Этот канал вам не принадлежит.")
		return
	case errors.Is(err, planner.ErrNoSession):
		b.editText(chatID, msgID, "Сессия планирования не найдена. Начните заново: /start")
		return
	case err != nil:
		b.log.Error("choose channel failed", "user", tgID, "err", err)
		b.editText(chatID, msgID, "Ошибка: попробуйте позже")
		return
	}
	b.editText(chatID, msgID,
		"📝 Отправьте пост\n\nМожно отправить:\n• Текст\n• Фото с подписью\n• Видео с подписью\n\n"+
			"Или отправьте ❌ для отмены.")
}

func (b *Bot) choosePlanTime(chatID int64, msgID int, key string) {
	at, err := b.planner.ChooseTimeNamed(chatID, key)
	if err != nil {
		if errors.Is(err, planner.ErrNoSession) {
			b.editText(chatID, msgID, "Сессия планирования не найдена. Начните заново: /start")
			return
		}
		b.editText(chatID, msgID, timeErrorText(err))
		return
	}

	sess := b.planner.Session(chatID)
	b.editTextKB(chatID, msgID, fmt.Sprintf(
		"📋 Подтверждение публикации\n\n📢 Канал: %s\n📝 Тип: %s\n⏰ Время: %s\n\n✅ Подтвердить?",
		sess.ChannelID, sess.ContentType, at.Format("2006.01.02 15:04")), confirmKeyboard())
}

func (b *Bot) confirmPlan(ctx context.Context, chatID, tgID int64, msgID int, accept bool) {
	sess := b.planner.Session(chatID)
	id, err := b.planner.Confirm(ctx, chatID, tgID, accept)
	if err != nil {
		if errors.Is(err, planner.ErrNoSession) {
			b.editText(chatID, msgID, "Сессия планирования не найдена. Начните заново: /start")
			return
		}
		b.log.Error("confirm failed", "user", tgID, "err", err)
		b.editText(chatID, msgID, "Ошибка: пост не сохранён, попробуйте позже")
		return
	}
	if !accept {
		b.editText(chatID, msgID, "❌ Планирование отменено.")
		return
	}
	b.editText(chatID, msgID, fmt.Sprintf(
		"✅ Пост запланирован!\n\n📝 ID поста: %d\n⏰ Время публикации: %s\n📢 Канал: %s\n\n"+
			"✨ Пост будет опубликован автоматически.",
		id, sess.ScheduledAt.Format("2006.01.02 15:04"), sess.ChannelID))
}

func (b *Bot) showTariffs(ctx context.Context, chatID int64, msgID int) {
	list, err := b.tariffRepo.List(ctx)
	if err != nil {
		b.log.Error("list tariffs failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: попробуйте позже"))
		return
	}

	var sb strings.Builder
	sb.WriteString("💰 Тарифы\n\n")
	for _, t := range list {
		fmt.Fprintf(&sb,
			"«%s»\n💵 Цена: %d звёзд\n📊 Каналов: %d\n📅 Постов в день: %d\n⏳ Срок: %d дней\n",
			t.Name, t.Price, t.ChannelsLimit, t.PostsPerDay, t.DurationDays)
		if pc := b.privateChannelFor(ctx, t.Name); pc != nil {
			fmt.Fprintf(&sb, "🔗 Приватный канал: %s\n", pc.InviteLink)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("💳 Для покупки нажмите кнопку ниже или отправьте /buy")

	if msgID != 0 {
		b.editTextKB(chatID, msgID, sb.String(), tariffsKeyboard())
		return
	}
	m := tgbotapi.NewMessage(chatID, sb.String())
	m.ReplyMarkup = tariffsKeyboard()
	b.send(m)
}

func (b *Bot) showBuy(ctx context.Context, chatID, tgID int64, msgID int) {
	t, err := b.tariffGet.Get(ctx, "basic")
	if err != nil || t.Name == tariffs.FreeName {
		b.send(tgbotapi.NewMessage(chatID, "❌ Платный тариф не настроен. Свяжитесь с администратором."))
		return
	}

	text := fmt.Sprintf(
		"💳 Оплата тарифа «%s»\n\n💵 Стоимость: %d звёзд\n\n"+
			"📋 Условия:\n• Каналов: %d\n• Постов в день: %d\n• Срок: %d дней\n\n"+
			"После оплаты тариф активируется автоматически.",
		t.Name, t.Price, t.ChannelsLimit, t.PostsPerDay, t.DurationDays)
	if pc := b.privateChannelFor(ctx, t.Name); pc != nil {
		text += fmt.Sprintf("\n\n🔗 Бонус — приватный канал: %s", pc.InviteLink)
	}

	kb := payKeyboard(b.pay.PaymentURL(tgID, t.Name))
	if msgID != 0 {
		b.editTextKB(chatID, msgID, text, kb)
		return
	}
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = kb
	b.send(m)
}

func timeErrorText(err error) string {
	switch {
	case errors.Is(err, planner.ErrPastTime):
		return "❌ Нельзя планировать в прошлом! Укажите другое время."
	case errors.Is(err, planner.ErrBadTimeFormat):
		return "❌ Неверный формат!\nИспользуйте: ГГГГ.ММ.ДД ЧЧ:ММ\nПример: 2026.12.31 18:30\n\n" +
			"Попробуйте снова или отправьте ❌ для отмены."
	default:
		return "❌ Не удалось выбрать время, попробуйте снова."
	}
}
