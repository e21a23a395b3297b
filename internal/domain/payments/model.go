package payments

import "time"

// Payment — строка журнала оплат. После создания не изменяется.
type Payment struct {
	ID        int64
	UserID    int64
	Tariff    string
	Amount    int64
	Status    string
	CreatedAt time.Time
}
