package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mivanov/postline-bot/internal/dialog"
	"github.com/mivanov/postline-bot/internal/domain/channels"
	"github.com/mivanov/postline-bot/internal/domain/posts"
	"github.com/mivanov/postline-bot/internal/domain/tariffs"
	"github.com/mivanov/postline-bot/internal/domain/users"
)

type fakeUsers struct {
	user        *users.User
	quotaErr    error
	submissions int
}

func (f *fakeUsers) GetByTelegramID(context.Context, int64) (*users.User, error) {
	return f.user, nil
}

func (f *fakeUsers) CheckDailyQuota(context.Context, int64, int) error { return f.quotaErr }

func (f *fakeUsers) RecordSubmission(context.Context, int64) error {
	f.submissions++
	return nil
}

type fakeTariffs struct{ t tariffs.Tariff }

func (f *fakeTariffs) Get(context.Context, string) (tariffs.Tariff, error) { return f.t, nil }

type fakeChannels struct{ list []channels.Channel }

func (f *fakeChannels) ListByUser(context.Context, int64) ([]channels.Channel, error) {
	return f.list, nil
}

type fakePosts struct {
	created []posts.Post
	nextID  int64
}

func (f *fakePosts) Create(_ context.Context, p posts.Post) (int64, error) {
	f.nextID++
	f.created = append(f.created, p)
	return f.nextID, nil
}

func newTestPlanner(us *fakeUsers, chs *fakeChannels, ps *fakePosts) *Planner {
	return New(dialog.NewStore(), us, &fakeTariffs{t: tariffs.Default()}, chs, ps)
}

const (
	chatID = int64(10)
	tgID   = int64(10)
)

func TestStart_QuotaExceeded(t *testing.T) {
	us := &fakeUsers{quotaErr: users.ErrQuotaExceeded}
	p := newTestPlanner(us, &fakeChannels{list: []channels.Channel{{ChannelID: "-100"}}}, &fakePosts{})

	_, err := p.Start(context.Background(), chatID, tgID)
	if !errors.Is(err, users.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if got := p.Session(chatID).State; got != dialog.StateIdle {
		t.Fatalf("session must not start on quota failure, got %q", got)
	}
}

func TestStart_NoChannels(t *testing.T) {
	p := newTestPlanner(&fakeUsers{}, &fakeChannels{}, &fakePosts{})

	_, err := p.Start(context.Background(), chatID, tgID)
	if !errors.Is(err, ErrNoChannels) {
		t.Fatalf("expected ErrNoChannels, got %v", err)
	}
}

func TestChooseChannel_MustBelongToUser(t *testing.T) {
	chs := &fakeChannels{list: []channels.Channel{{ChannelID: "-100mine"}}}
	p := newTestPlanner(&fakeUsers{}, chs, &fakePosts{})

	if _, err := p.Start(context.Background(), chatID, tgID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	err := p.ChooseChannel(context.Background(), chatID, tgID, "-100other")
	if !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
	// Сессия остаётся на шаге выбора канала, можно повторить.
	if got := p.Session(chatID).State; got != dialog.StatePlanPickChannel {
		t.Fatalf("expected session to stay on channel step, got %q", got)
	}
}

func TestWorkflow_HappyPath(t *testing.T) {
	chs := &fakeChannels{list: []channels.Channel{{ChannelID: "-100mine"}}}
	us := &fakeUsers{}
	ps := &fakePosts{}
	p := newTestPlanner(us, chs, ps)
	p.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.Local) }

	if _, err := p.Start(context.Background(), chatID, tgID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.ChooseChannel(context.Background(), chatID, tgID, "-100mine"); err != nil {
		t.Fatalf("ChooseChannel: %v", err)
	}
	if err := p.CaptureContent(chatID, "подпись", "file123", posts.KindPhoto); err != nil {
		t.Fatalf("CaptureContent: %v", err)
	}
	at, err := p.ChooseTimeNamed(chatID, KeyIn1Hour)
	if err != nil {
		t.Fatalf("ChooseTimeNamed: %v", err)
	}
	want := time.Date(2026, 5, 1, 13, 0, 0, 0, time.Local)
	if !at.Equal(want) {
		t.Fatalf("expected %v, got %v", want, at)
	}

	id, err := p.Confirm(context.Background(), chatID, tgID, true)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if id != 1 || len(ps.created) != 1 {
		t.Fatalf("expected one created post, got id=%d n=%d", id, len(ps.created))
	}
	created := ps.created[0]
	if created.Kind != posts.KindPhoto || created.MediaID == nil || *created.MediaID != "file123" {
		t.Fatalf("unexpected post content: %+v", created)
	}
	if !created.ScheduledAt.Equal(want) {
		t.Fatalf("expected scheduled at %v, got %v", want, created.ScheduledAt)
	}
	if us.submissions != 1 {
		t.Fatalf("expected exactly one quota consumption, got %d", us.submissions)
	}
	if got := p.Session(chatID).State; got != dialog.StateIdle {
		t.Fatalf("session must be discarded after commit, got %q", got)
	}
}

func TestConfirm_RejectDiscardsSession(t *testing.T) {
	chs := &fakeChannels{list: []channels.Channel{{ChannelID: "-100mine"}}}
	us := &fakeUsers{}
	ps := &fakePosts{}
	p := newTestPlanner(us, chs, ps)

	mustReachConfirm(t, p)

	id, err := p.Confirm(context.Background(), chatID, tgID, false)
	if err != nil || id != 0 {
		t.Fatalf("expected clean reject, got id=%d err=%v", id, err)
	}
	if len(ps.created) != 0 {
		t.Fatalf("rejected confirmation must not create posts")
	}
	if us.submissions != 0 {
		t.Fatalf("rejected confirmation must not consume quota")
	}
}

func TestChooseTime_StepsRequirePriorState(t *testing.T) {
	p := newTestPlanner(&fakeUsers{}, &fakeChannels{}, &fakePosts{})

	if _, err := p.ChooseTimeNamed(chatID, KeyIn1Hour); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if err := p.CaptureContent(chatID, "x", "", posts.KindText); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := p.Confirm(context.Background(), chatID, tgID, true); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestCustomTime_RetryAfterErrors(t *testing.T) {
	chs := &fakeChannels{list: []channels.Channel{{ChannelID: "-100mine"}}}
	p := newTestPlanner(&fakeUsers{}, chs, &fakePosts{})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.Local)
	p.now = func() time.Time { return now }

	if _, err := p.Start(context.Background(), chatID, tgID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.ChooseChannel(context.Background(), chatID, tgID, "-100mine"); err != nil {
		t.Fatalf("ChooseChannel: %v", err)
	}
	if err := p.CaptureContent(chatID, "текст", "", posts.KindText); err != nil {
		t.Fatalf("CaptureContent: %v", err)
	}
	if err := p.AwaitCustomTime(chatID); err != nil {
		t.Fatalf("AwaitCustomTime: %v", err)
	}

	if _, err := p.ChooseTimeCustom(chatID, "31.12.2026 18:30"); !errors.Is(err, ErrBadTimeFormat) {
		t.Fatalf("expected ErrBadTimeFormat, got %v", err)
	}
	if _, err := p.ChooseTimeCustom(chatID, "2026.04.30 12:00"); !errors.Is(err, ErrPastTime) {
		t.Fatalf("expected ErrPastTime, got %v", err)
	}
	// Обе ошибки оставляют сессию на вводе времени.
	if got := p.Session(chatID).State; got != dialog.StatePlanCustomTime {
		t.Fatalf("expected session to stay on time step, got %q", got)
	}

	if _, err := p.ChooseTimeCustom(chatID, "2026.12.31 18:30"); err != nil {
		t.Fatalf("valid retry failed: %v", err)
	}
	if got := p.Session(chatID).State; got != dialog.StatePlanConfirm {
		t.Fatalf("expected confirm step, got %q", got)
	}
}

func TestStart_ReplacesPreviousSession(t *testing.T) {
	chs := &fakeChannels{list: []channels.Channel{{ChannelID: "-100mine"}}}
	p := newTestPlanner(&fakeUsers{}, chs, &fakePosts{})

	mustReachConfirm(t, p)

	// Новый старт молча затирает прошлый черновик.
	if _, err := p.Start(context.Background(), chatID, tgID); err != nil {
		t.Fatalf("restart: %v", err)
	}
	sess := p.Session(chatID)
	if sess.State != dialog.StatePlanPickChannel || sess.ChannelID != "" {
		t.Fatalf("expected fresh session, got %+v", sess)
	}
}

func mustReachConfirm(t *testing.T, p *Planner) {
	t.Helper()
	if _, err := p.Start(context.Background(), chatID, tgID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.ChooseChannel(context.Background(), chatID, tgID, "-100mine"); err != nil {
		t.Fatalf("ChooseChannel: %v", err)
	}
	if err := p.CaptureContent(chatID, "текст", "", posts.KindText); err != nil {
		t.Fatalf("CaptureContent: %v", err)
	}
	if _, err := p.ChooseTimeNamed(chatID, KeyIn3Hours); err != nil {
		t.Fatalf("ChooseTimeNamed: %v", err)
	}
}
