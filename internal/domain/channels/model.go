package channels

import "time"

// Channel — привязанный к пользователю Telegram-канал.
// channel_id уникален глобально: канал принадлежит ровно одному пользователю.
type Channel struct {
	ID        int64
	UserID    int64
	ChannelID string
	Title     string
	AddedAt   time.Time
}
