package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/mivanov/postline-bot/internal/domain/posts"
	"github.com/mivanov/postline-bot/internal/infra/metrics"
)

type PostStore interface {
	ListDue(ctx context.Context, until time.Time) ([]posts.Post, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// Sender — исходящий канал в Telegram. Любой метод может вернуть
// транспортную ошибку; она оседает в last_error поста.
type Sender interface {
	SendText(ctx context.Context, channelID, text string) error
	SendPhoto(ctx context.Context, channelID, fileID, caption string) error
	SendVideo(ctx context.Context, channelID, fileID, caption string) error
}

// Publisher — тик движка отложенной публикации. Выбирает pending-посты
// со сроком в пределах окна lookahead и рассылает их по порядку.
type Publisher struct {
	store     PostStore
	sender    Sender
	lookahead time.Duration
	log       *slog.Logger

	now func() time.Time
}

func New(store PostStore, sender Sender, lookahead time.Duration, log *slog.Logger) *Publisher {
	return &Publisher{
		store:     store,
		sender:    sender,
		lookahead: lookahead,
		log:       log,
		now:       time.Now,
	}
}

// Tick публикует все созревшие посты. Ошибка отправки помечает пост
// failed и не прерывает остальные; ретраев нет — failed терминален.
func (p *Publisher) Tick(ctx context.Context) {
	due, err := p.store.ListDue(ctx, p.now().Add(p.lookahead))
	if err != nil {
		p.log.Error("list due posts failed", "err", err)
		return
	}

	for _, post := range due {
		if err := p.dispatch(ctx, post); err != nil {
			metrics.PostsFailed.Inc()
			p.log.Error("post publish failed",
				"post_id", post.ID, "channel", post.ChannelID, "err", err)
			if merr := p.store.MarkFailed(ctx, post.ID, err.Error()); merr != nil {
				p.log.Error("mark failed failed", "post_id", post.ID, "err", merr)
			}
			continue
		}

		if err := p.store.MarkPublished(ctx, post.ID); err != nil {
			p.log.Error("mark published failed", "post_id", post.ID, "err", err)
			continue
		}
		metrics.PostsPublished.Inc()
		p.log.Info("post published", "post_id", post.ID, "channel", post.ChannelID)
	}
}

func (p *Publisher) dispatch(ctx context.Context, post posts.Post) error {
	switch post.Kind {
	case posts.KindPhoto:
		return p.sender.SendPhoto(ctx, post.ChannelID, deref(post.MediaID), post.Content)
	case posts.KindVideo:
		return p.sender.SendVideo(ctx, post.ChannelID, deref(post.MediaID), post.Content)
	default:
		return p.sender.SendText(ctx, post.ChannelID, post.Content)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
