package posts

import "time"

type ContentKind string

const (
	KindText  ContentKind = "text"
	KindPhoto ContentKind = "photo"
	KindVideo ContentKind = "video"
)

type Status string

const (
	// StatusPending — единственный статус до отправки: пост, не
	// успевший отправиться до рестарта, подхватится следующим тиком.
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

// Post — закоммиченная заявка на публикацию.
// scheduled_at хранится без таймзоны и трактуется в локальном времени процесса.
type Post struct {
	ID          int64
	UserID      int64
	ChannelID   string
	Kind        ContentKind
	Content     string
	MediaID     *string // file_id для photo/video, NULL для text
	ScheduledAt time.Time
	Status      Status
	LastError   *string
	CreatedAt   time.Time
}
