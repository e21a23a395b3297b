package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mivanov/postline-bot/internal/dialog"
	"github.com/mivanov/postline-bot/internal/domain/channels"
	"github.com/mivanov/postline-bot/internal/domain/posts"
	"github.com/mivanov/postline-bot/internal/domain/tariffs"
	"github.com/mivanov/postline-bot/internal/domain/users"
)

var (
	// ErrNoChannels — планировать некуда, у пользователя нет каналов.
	ErrNoChannels = errors.New("planner: user has no channels")
	// ErrUnknownChannel — выбранный канал не принадлежит пользователю.
	ErrUnknownChannel = errors.New("planner: channel does not belong to user")
	// ErrNoSession — шаг вызван без активной сессии или не в том состоянии.
	ErrNoSession = errors.New("planner: no active session for this step")
	// ErrEmptyContent — пост без текста и без медиа.
	ErrEmptyContent = errors.New("planner: post content is empty")
)

type UserStore interface {
	GetByTelegramID(ctx context.Context, tgID int64) (*users.User, error)
	CheckDailyQuota(ctx context.Context, tgID int64, limit int) error
	RecordSubmission(ctx context.Context, tgID int64) error
}

type TariffStore interface {
	Get(ctx context.Context, name string) (tariffs.Tariff, error)
}

type ChannelStore interface {
	ListByUser(ctx context.Context, userID int64) ([]channels.Channel, error)
}

type PostStore interface {
	Create(ctx context.Context, p posts.Post) (int64, error)
}

// Planner ведёт пользователя по шагам планирования поста:
// выбор канала → контент → время → подтверждение.
// На каждый чат — одна сессия, шаги строго последовательны.
type Planner struct {
	sessions *dialog.Store
	users    UserStore
	tariffs  TariffStore
	channels ChannelStore
	posts    PostStore

	now func() time.Time
}

func New(sessions *dialog.Store, usersStore UserStore, tariffsStore TariffStore,
	channelStore ChannelStore, postStore PostStore) *Planner {

	return &Planner{
		sessions: sessions,
		users:    usersStore,
		tariffs:  tariffsStore,
		channels: channelStore,
		posts:    postStore,
		now:      time.Now,
	}
}

// Start проверяет дневную квоту и наличие каналов, заводит сессию и
// возвращает каналы для клавиатуры. Квота здесь только читается;
// расходуется она при подтверждении. Уже идущее планирование молча
// заменяется новым.
func (p *Planner) Start(ctx context.Context, chatID, tgID int64) ([]channels.Channel, error) {
	tariffName := tariffs.FreeName
	if u, err := p.users.GetByTelegramID(ctx, tgID); err != nil {
		return nil, err
	} else if u != nil {
		tariffName = u.Tariff
	}

	t, err := p.tariffs.Get(ctx, tariffName)
	if err != nil {
		return nil, err
	}
	if err := p.users.CheckDailyQuota(ctx, tgID, t.PostsPerDay); err != nil {
		return nil, err
	}

	chs, err := p.channels.ListByUser(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if len(chs) == 0 {
		return nil, ErrNoChannels
	}

	p.sessions.Set(chatID, dialog.Session{State: dialog.StatePlanPickChannel})
	return chs, nil
}

func (p *Planner) ChooseChannel(ctx context.Context, chatID, tgID int64, channelID string) error {
	sess := p.sessions.Get(chatID)
	if sess.State != dialog.StatePlanPickChannel {
		return ErrNoSession
	}

	chs, err := p.channels.ListByUser(ctx, tgID)
	if err != nil {
		return err
	}
	owned := false
	for _, c := range chs {
		if c.ChannelID == channelID {
			owned = true
			break
		}
	}
	if !owned {
		return ErrUnknownChannel
	}

	sess.ChannelID = channelID
	sess.State = dialog.StatePlanContent
	p.sessions.Set(chatID, sess)
	return nil
}

// CaptureContent принимает текст, текст+фото или текст+видео.
func (p *Planner) CaptureContent(chatID int64, text, mediaID string, kind posts.ContentKind) error {
	sess := p.sessions.Get(chatID)
	if sess.State != dialog.StatePlanContent {
		return ErrNoSession
	}
	if kind == posts.KindText && text == "" {
		return ErrEmptyContent
	}
	if kind != posts.KindText && mediaID == "" {
		return ErrEmptyContent
	}

	sess.Text = text
	sess.MediaID = mediaID
	sess.ContentType = string(kind)
	sess.State = dialog.StatePlanTime
	p.sessions.Set(chatID, sess)
	return nil
}

// ChooseTimeNamed обрабатывает кнопки с готовыми вариантами времени.
func (p *Planner) ChooseTimeNamed(chatID int64, key string) (time.Time, error) {
	sess := p.sessions.Get(chatID)
	if sess.State != dialog.StatePlanTime && sess.State != dialog.StatePlanCustomTime {
		return time.Time{}, ErrNoSession
	}

	at, err := ResolveNamed(key, p.now())
	if err != nil {
		return time.Time{}, err
	}

	sess.ScheduledAt = at
	sess.State = dialog.StatePlanConfirm
	p.sessions.Set(chatID, sess)
	return at, nil
}

// AwaitCustomTime переводит сессию в режим ручного ввода даты.
func (p *Planner) AwaitCustomTime(chatID int64) error {
	sess := p.sessions.Get(chatID)
	if sess.State != dialog.StatePlanTime {
		return ErrNoSession
	}
	sess.State = dialog.StatePlanCustomTime
	p.sessions.Set(chatID, sess)
	return nil
}

// ChooseTimeCustom парсит дату формата "ГГГГ.ММ.ДД ЧЧ:ММ". При ошибке
// (формат или прошлое время) сессия остаётся на этом же шаге — можно
// попробовать снова.
func (p *Planner) ChooseTimeCustom(chatID int64, input string) (time.Time, error) {
	sess := p.sessions.Get(chatID)
	if sess.State != dialog.StatePlanCustomTime {
		return time.Time{}, ErrNoSession
	}

	at, err := ParseCustom(input, p.now())
	if err != nil {
		return time.Time{}, err
	}

	sess.ScheduledAt = at
	sess.State = dialog.StatePlanConfirm
	p.sessions.Set(chatID, sess)
	return at, nil
}

// Confirm при accept=true коммитит пост в pending и расходует квоту,
// иначе сбрасывает сессию. Квота при коммите повторно не проверяется:
// между startом и подтверждением тот же пользователь другой пост
// провести не может (диалог последовательный).
func (p *Planner) Confirm(ctx context.Context, chatID, tgID int64, accept bool) (int64, error) {
	sess := p.sessions.Get(chatID)
	if sess.State != dialog.StatePlanConfirm {
		return 0, ErrNoSession
	}
	if !accept {
		p.sessions.Reset(chatID)
		return 0, nil
	}

	var mediaID *string
	if sess.MediaID != "" {
		m := sess.MediaID
		mediaID = &m
	}

	id, err := p.posts.Create(ctx, posts.Post{
		UserID:      tgID,
		ChannelID:   sess.ChannelID,
		Kind:        posts.ContentKind(sess.ContentType),
		Content:     sess.Text,
		MediaID:     mediaID,
		ScheduledAt: sess.ScheduledAt,
	})
	if err != nil {
		return 0, fmt.Errorf("create post: %w", err)
	}

	if err := p.users.RecordSubmission(ctx, tgID); err != nil {
		return id, fmt.Errorf("record submission: %w", err)
	}

	p.sessions.Reset(chatID)
	return id, nil
}

// Cancel доступен из любого шага.
func (p *Planner) Cancel(chatID int64) {
	p.sessions.Reset(chatID)
}

// Session отдаёт текущий снимок сессии (для подтверждения в UI).
func (p *Planner) Session(chatID int64) dialog.Session {
	return p.sessions.Get(chatID)
}
