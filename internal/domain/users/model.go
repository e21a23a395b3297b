package users

import "time"

type User struct {
	TelegramID      int64
	Username        string
	FirstName       string
	LastName        string
	Tariff          string
	SubscriptionEnd *time.Time // NULL для free
	PostsToday      int
	LastPostDate    *time.Time
	CreatedAt       time.Time
}

type Telegram struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// PostedToday — счётчик posts_today имеет смысл только если
// last_post_date совпадает с сегодняшним днём; иначе он считается нулём.
func (u *User) PostedToday(now time.Time) int {
	if u.LastPostDate == nil {
		return 0
	}
	y1, m1, d1 := u.LastPostDate.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return u.PostsToday
	}
	return 0
}
