package tariffs

// FreeName — базовый тариф, на него откатываемся при любом промахе.
const FreeName = "free"

type Tariff struct {
	Name          string
	Price         int64
	ChannelsLimit int
	PostsPerDay   int
	DurationDays  int
}

// Default тариф free: 1 канал, 1 пост в день, без срока действия.
func Default() Tariff {
	return Tariff{
		Name:          FreeName,
		Price:         0,
		ChannelsLimit: 1,
		PostsPerDay:   1,
		DurationDays:  0,
	}
}

// PrivateChannel — закрытый канал, доступ к которому даёт тариф.
type PrivateChannel struct {
	TariffName string
	ChannelID  int64
	InviteLink string
}
