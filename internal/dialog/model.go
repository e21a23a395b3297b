package dialog

import "time"

type State string

const (
	StateIdle State = "idle"

	// Планирование поста
	StatePlanPickChannel State = "plan_pick_channel"
	StatePlanContent     State = "plan_content"
	StatePlanTime        State = "plan_time"
	StatePlanCustomTime  State = "plan_custom_time" // ввод даты руками
	StatePlanConfirm     State = "plan_confirm"

	// Админка
	StateAdmPrice   State = "adm_price"   // ввод новой цены тарифа
	StateAdmChannel State = "adm_channel" // ввод приватного канала "id ссылка"
)

// Session — черновик поста на время диалога. Живёт только в памяти:
// новый старт планирования молча затирает предыдущий черновик,
// коммит/отмена удаляют его.
type Session struct {
	ChatID      int64
	State       State
	ChannelID   string
	Text        string
	MediaID     string
	ContentType string
	ScheduledAt time.Time
	UpdatedAt   time.Time
}
