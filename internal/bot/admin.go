package bot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"

	"github.com/mivanov/postline-bot/internal/dialog"
	"github.com/mivanov/postline-bot/internal/domain/tariffs"
)

func (b *Bot) onAdminCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if !b.isAdmin(cb.From.ID) {
		return
	}
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	switch cb.Data {
	case "adm:price":
		b.sessions.Set(chatID, dialog.Session{ChatID: chatID, State: dialog.StateAdmPrice})
		b.editText(chatID, msgID,
			"💰 Введите новую цену тарифа basic (в звёздах):\n\nИли отправьте ❌ для отмены.")

	case "adm:channel":
		b.sessions.Set(chatID, dialog.Session{ChatID: chatID, State: dialog.StateAdmChannel})
		b.editText(chatID, msgID,
			"🔗 Отправьте ID приватного канала и инвайт-ссылку через пробел:\n\n"+
				"Пример: -1001234567890 https://t.me/+AbCdEf\n\nИли отправьте ❌ для отмены.")

	case "adm:users":
		b.showAdminUsers(ctx, chatID, msgID)

	case "adm:export":
		b.exportPosts(ctx, chatID)
	}
}

func (b *Bot) showAdminPanel(ctx context.Context, chatID int64, msgID int) {
	allUsers, err := b.users.ListAll(ctx)
	if err != nil {
		b.log.Error("admin: list users failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: попробуйте позже"))
		return
	}
	byTariff, err := b.users.CountByTariff(ctx)
	if err != nil {
		b.log.Error("admin: count by tariff failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: попробуйте позже"))
		return
	}
	revenue, err := b.payments.TotalRevenue(ctx)
	if err != nil {
		b.log.Error("admin: total revenue failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: попробуйте позже"))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👑 Админ-панель\n\n👥 Пользователей: %d\n", len(allUsers))
	for name, n := range byTariff {
		fmt.Fprintf(&sb, "  • %s: %d\n", name, n)
	}
	fmt.Fprintf(&sb, "💰 Доход: %d звёзд\n", revenue)

	if msgID != 0 {
		b.editTextKB(chatID, msgID, sb.String(), adminKeyboard())
		return
	}
	m := tgbotapi.NewMessage(chatID, sb.String())
	m.ReplyMarkup = adminKeyboard()
	b.send(m)
}

func (b *Bot) showAdminUsers(ctx context.Context, chatID int64, msgID int) {
	list, err := b.users.ListAll(ctx)
	if err != nil {
		b.log.Error("admin: list users failed", "err", err)
		b.editText(chatID, msgID, "Ошибка: попробуйте позже")
		return
	}
	if len(list) == 0 {
		b.editText(chatID, msgID, "Пользователей пока нет.")
		return
	}

	var sb strings.Builder
	sb.WriteString("👥 Пользователи:\n\n")
	for _, u := range list {
		name := u.Username
		if name == "" {
			name = strings.TrimSpace(u.FirstName + " " + u.LastName)
		}
		fmt.Fprintf(&sb, "• %d @%s — %s", u.TelegramID, name, u.Tariff)
		if u.SubscriptionEnd != nil {
			fmt.Fprintf(&sb, " (до %s)", u.SubscriptionEnd.Format("2006.01.02"))
		}
		sb.WriteString("\n")
	}
	b.editText(chatID, msgID, sb.String())
}

func (b *Bot) handleAdminPrice(ctx context.Context, chatID int64, msg *tgbotapi.Message) {
	defer b.sessions.Reset(chatID)

	price, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
	if err != nil || price < 0 {
		b.send(tgbotapi.NewMessage(chatID, "❌ Цена должна быть целым неотрицательным числом."))
		return
	}

	ok, err := b.tariffRepo.SetPrice(ctx, "basic", price)
	if err != nil {
		b.log.Error("admin: set price failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: цена не сохранена"))
		return
	}
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, "❌ Тариф basic не найден."))
		return
	}
	if b.tariffInvalidate != nil {
		if err := b.tariffInvalidate.Invalidate(ctx, "basic"); err != nil {
			b.log.Warn("admin: cache invalidate failed", "err", err)
		}
	}
	b.send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("✅ Цена тарифа basic обновлена: %d звёзд", price)))
}

func (b *Bot) handleAdminChannel(ctx context.Context, chatID int64, msg *tgbotapi.Message) {
	defer b.sessions.Reset(chatID)

	parts := strings.Fields(msg.Text)
	if len(parts) != 2 {
		b.send(tgbotapi.NewMessage(chatID,
			"❌ Формат: [ID канала] [инвайт-ссылка]\nПример: -1001234567890 https://t.me/+AbCdEf"))
		return
	}
	channelID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "❌ ID канала должен быть числом."))
		return
	}

	if err := b.tariffRepo.SetPrivateChannel(ctx, "basic", channelID, parts[1]); err != nil {
		b.log.Error("admin: set private channel failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: канал не сохранён"))
		return
	}
	b.send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("✅ Приватный канал тарифа basic: %d\n🔗 %s", channelID, parts[1])))
}

// exportPosts выгружает все запланированные посты в xlsx-файл.
func (b *Bot) exportPosts(ctx context.Context, chatID int64) {
	list, err := b.posts.ListAll(ctx)
	if err != nil {
		b.log.Error("admin: list posts failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: попробуйте позже"))
		return
	}
	if len(list) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "Постов пока нет."))
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Posts"
	f.SetSheetName("Sheet1", sheet)
	headers := []string{"ID", "Пользователь", "Канал", "Тип", "Текст", "Запланировано", "Статус", "Ошибка"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for row, p := range list {
		lastErr := ""
		if p.LastError != nil {
			lastErr = *p.LastError
		}
		values := []any{
			p.ID, p.UserID, p.ChannelID, string(p.Kind), p.Content,
			p.ScheduledAt.Format("2006.01.02 15:04"), string(p.Status), lastErr,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		b.log.Error("admin: xlsx write failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: не удалось сформировать файл"))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "posts.xlsx",
		Bytes: buf.Bytes(),
	})
	doc.Caption = fmt.Sprintf("📊 Выгрузка постов: %d шт.", len(list))
	b.send(doc)
}

// приватный канал тарифа нужен и в покупке, и в рассылке инвайта после оплаты
func (b *Bot) privateChannelFor(ctx context.Context, tariffName string) *tariffs.PrivateChannel {
	pc, err := b.tariffRepo.GetPrivateChannel(ctx, tariffName)
	if err != nil {
		b.log.Warn("private channel lookup failed", "tariff", tariffName, "err", err)
		return nil
	}
	return pc
}
