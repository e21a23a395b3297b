package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Redis struct {
		Enabled bool
		Addr    string
		TTL     time.Duration
	} `mapstructure:"redis"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Publisher struct {
		Interval  time.Duration
		Lookahead time.Duration
	} `mapstructure:"publisher"`

	Expiry struct {
		Interval time.Duration
	} `mapstructure:"expiry"`

	Dialog struct {
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"dialog"`

	Payments struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"payments"`
}

func Load(path string) (Config, error) {
	// .env (если есть) подхватываем до viper, чтобы работал AutomaticEnv
	_ = gotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	v.SetDefault("publisher.interval", time.Minute)
	v.SetDefault("publisher.lookahead", 5*time.Minute)
	v.SetDefault("expiry.interval", 6*time.Hour)
	v.SetDefault("dialog.idle_timeout", 30*time.Minute)
	v.SetDefault("redis.ttl", 5*time.Minute)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
