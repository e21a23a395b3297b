package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mivanov/postline-bot/internal/dialog"
	"github.com/mivanov/postline-bot/internal/domain/channels"
	"github.com/mivanov/postline-bot/internal/domain/posts"
	"github.com/mivanov/postline-bot/internal/domain/tariffs"
	"github.com/mivanov/postline-bot/internal/domain/users"
)

// cancelToken — «голая» отмена текстом вместо кнопки.
const cancelToken = "❌"

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleStateMessage(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	tgID := msg.From.ID

	switch msg.Command() {
	case "start":
		u, err := b.users.UpsertFromTelegram(ctx, users.Telegram{
			ID:        tgID,
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
		})
		if err != nil {
			b.log.Error("upsert user failed", "user", tgID, "err", err)
			b.send(tgbotapi.NewMessage(chatID, "Ошибка: не удалось сохранить профиль"))
			return
		}
		m := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"👋 Привет, %s!\n\n"+
				"🤖 Я бот для отложенной публикации постов в Telegram-каналах.\n\n"+
				"✨ Для начала работы:\n"+
				"1. Добавьте канал: /add_channel\n"+
				"2. Посмотрите тарифы: /tariffs\n"+
				"3. Планируйте посты!", u.FirstName))
		m.ReplyMarkup = mainMenuKeyboard()
		b.send(m)

	case "help":
		b.send(tgbotapi.NewMessage(chatID, helpText()))

	case "tariffs":
		b.showTariffs(ctx, chatID, 0)

	case "buy":
		b.showBuy(ctx, chatID, tgID, 0)

	case "add_channel":
		b.handleAddChannel(ctx, msg)

	case "channels":
		b.showChannels(ctx, chatID, tgID)

	case "posts":
		b.showPosts(ctx, chatID, tgID)

	case "admin":
		if !b.isAdmin(tgID) {
			b.send(tgbotapi.NewMessage(chatID, "❌ Доступ запрещён."))
			return
		}
		b.showAdminPanel(ctx, chatID, 0)

	default:
		b.send(tgbotapi.NewMessage(chatID, "Не знаю такую команду. Наберите /help"))
	}
}

// handleStateMessage разбирает текст/медиа по текущему шагу диалога.
func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sess := b.planner.Session(chatID)

	if msg.Text == cancelToken && sess.State != dialog.StateIdle {
		b.planner.Cancel(chatID)
		b.send(tgbotapi.NewMessage(chatID, "❌ Планирование отменено."))
		return
	}

	switch sess.State {
	case dialog.StatePlanContent:
		b.handlePlanContent(chatID, msg)

	case dialog.StatePlanCustomTime:
		b.handleCustomTime(chatID, msg.Text)

	case dialog.StateAdmPrice:
		b.handleAdminPrice(ctx, chatID, msg)

	case dialog.StateAdmChannel:
		b.handleAdminChannel(ctx, chatID, msg)
	}
}

func (b *Bot) handlePlanContent(chatID int64, msg *tgbotapi.Message) {
	var (
		kind    = posts.KindText
		mediaID string
		text    = msg.Text
	)
	switch {
	case len(msg.Photo) > 0:
		kind = posts.KindPhoto
		mediaID = msg.Photo[len(msg.Photo)-1].FileID
		text = msg.Caption
	case msg.Video != nil:
		kind = posts.KindVideo
		mediaID = msg.Video.FileID
		text = msg.Caption
	}

	if err := b.planner.CaptureContent(chatID, text, mediaID, kind); err != nil {
		b.send(tgbotapi.NewMessage(chatID,
			"❌ Пустой пост. Отправьте текст, фото или видео, либо ❌ для отмены."))
		return
	}

	preview := text
	if len([]rune(preview)) > 100 {
		preview = string([]rune(preview)[:100]) + "..."
	}
	m := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"✅ Контент получен!\n\n📝 Текст: %s\n📁 Тип: %s\n\n⏰ Выберите время публикации:",
		preview, kind))
	m.ReplyMarkup = timeKeyboard()
	b.send(m)
}

func (b *Bot) handleCustomTime(chatID int64, input string) {
	at, err := b.planner.ChooseTimeCustom(chatID, input)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, timeErrorText(err)))
		return
	}
	b.askConfirm(chatID, at)
}

func (b *Bot) handleAddChannel(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	tgID := msg.From.ID

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		b.send(tgbotapi.NewMessage(chatID,
			"❌ Использование: /add_channel [ID_канала] [Название]\n\n"+
				"Пример: /add_channel -1001234567890 Мой Канал\n\n"+
				"📝 ID канала можно узнать через @getidsbot"))
		return
	}

	channelID := args[0]
	title := strings.Join(args[1:], " ")

	cid, err := parseChannelID(channelID)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "❌ Неверный ID канала. Ожидается число вида -1001234567890."))
		return
	}

	// Бот должен быть админом канала, иначе публиковать не сможет.
	if !b.isChannelAdmin(cid, b.api.Self.ID) {
		b.send(tgbotapi.NewMessage(chatID,
			"❌ Я не являюсь администратором этого канала!\n\n"+
				"📌 Добавьте меня как администратора с правом публикации сообщений."))
		return
	}

	// Регистрируем пользователя на случай, если /start пропущен.
	if _, err := b.users.UpsertFromTelegram(ctx, users.Telegram{
		ID: tgID, Username: msg.From.UserName,
		FirstName: msg.From.FirstName, LastName: msg.From.LastName,
	}); err != nil {
		b.log.Error("upsert user failed", "user", tgID, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: не удалось сохранить профиль"))
		return
	}

	tariffName := tariffs.FreeName
	if u, _ := b.users.GetByTelegramID(ctx, tgID); u != nil {
		tariffName = u.Tariff
	}
	t, err := b.tariffGet.Get(ctx, tariffName)
	if err != nil {
		b.log.Error("tariff lookup failed", "tariff", tariffName, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: попробуйте позже"))
		return
	}

	err = b.channels.Add(ctx, tgID, channelID, title, t.ChannelsLimit)
	switch {
	case errors.Is(err, channels.ErrLimitExceeded):
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"❌ Лимит каналов (%d) по тарифу «%s» достигнут.\n\n"+
				"💳 Купите тариф для увеличения лимита: /tariffs", t.ChannelsLimit, t.Name)))
	case errors.Is(err, channels.ErrAlreadyRegistered):
		b.send(tgbotapi.NewMessage(chatID, "❌ Этот канал уже добавлен."))
	case err != nil:
		b.log.Error("add channel failed", "user", tgID, "channel", channelID, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: не удалось добавить канал"))
	default:
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"✅ Канал добавлен!\n\n📝 Канал: %s\n🔗 ID: %s", title, channelID)))
	}
}

func (b *Bot) showChannels(ctx context.Context, chatID, tgID int64) {
	chs, err := b.channels.ListByUser(ctx, tgID)
	if err != nil {
		b.log.Error("list channels failed", "user", tgID, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: попробуйте позже"))
		return
	}
	if len(chs) == 0 {
		b.send(tgbotapi.NewMessage(chatID,
			"📭 У вас нет добавленных каналов.\n\n✨ Добавить: /add_channel [ID] [Название]"))
		return
	}

	tariffName := tariffs.FreeName
	if u, _ := b.users.GetByTelegramID(ctx, tgID); u != nil {
		tariffName = u.Tariff
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Ваши каналы (тариф: %s)\n\n", tariffName)
	for i, c := range chs {
		fmt.Fprintf(&sb, "%d. %s\n   ID: %s\n\n", i+1, c.Title, c.ChannelID)
	}
	b.send(tgbotapi.NewMessage(chatID, sb.String()))
}

func (b *Bot) showPosts(ctx context.Context, chatID, tgID int64) {
	list, err := b.posts.ListByUser(ctx, tgID, 10)
	if err != nil {
		b.log.Error("list posts failed", "user", tgID, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: попробуйте позже"))
		return
	}
	if len(list) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "📭 Запланированных постов нет."))
		return
	}

	statusRU := map[posts.Status]string{
		posts.StatusPending:   "⏳ ожидает",
		posts.StatusPublished: "✅ опубликован",
		posts.StatusFailed:    "❌ ошибка",
	}
	var sb strings.Builder
	sb.WriteString("📅 Последние посты:\n\n")
	for _, p := range list {
		fmt.Fprintf(&sb, "#%d — %s, %s\n   Канал: %s\n",
			p.ID, p.ScheduledAt.Format("2006.01.02 15:04"), statusRU[p.Status], p.ChannelID)
	}
	b.send(tgbotapi.NewMessage(chatID, sb.String()))
}

func (b *Bot) askConfirm(chatID int64, at time.Time) {
	sess := b.planner.Session(chatID)
	m := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"📋 Подтверждение публикации\n\n📢 Канал: %s\n📝 Тип: %s\n⏰ Время: %s\n\n✅ Подтвердить?",
		sess.ChannelID, sess.ContentType, at.Format("2006.01.02 15:04")))
	m.ReplyMarkup = confirmKeyboard()
	b.send(m)
}

func helpText() string {
	return "🆘 Помощь\n\n" +
		"📋 Основные команды:\n" +
		"/start — главное меню\n" +
		"/add_channel — добавить канал\n" +
		"/channels — мои каналы\n" +
		"/posts — мои посты\n" +
		"/tariffs — информация о тарифе\n" +
		"/buy — купить тариф\n\n" +
		"📅 Планирование:\n" +
		"1. Нажмите «Запланировать пост»\n" +
		"2. Выберите канал\n" +
		"3. Отправьте контент\n" +
		"4. Выберите время\n" +
		"5. Подтвердите"
}
