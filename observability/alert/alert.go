// Package alert reports failures to Discord or Telegram.
//
// Error counts and cooldowns live in Redis, so replicas of one service share
// a single cooldown per operation.
package alert

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/redis/go-redis/v9"
)

const (
	providerDiscord  = "discord"
	providerTelegram = "telegram"
	providerNoop     = "noop"
)

// Config configures the alert provider.
type Config struct {
	Provider string `yaml:"provider" validate:"oneof=discord telegram noop" default:"noop"`

	// Cooldown is the minimum gap between two alerts for the same service and
	// operation. It is also the window errors are counted over.
	Cooldown    time.Duration `yaml:"cooldown"     default:"5m"`
	SendTimeout time.Duration `yaml:"send_timeout" default:"3s"`
	KeyPrefix   string        `yaml:"key_prefix"   default:"redq:alert"`

	TelegramBotToken string  `yaml:"telegram_bot_token" mask:"true"`
	TelegramChatIDs  []int64 `yaml:"telegram_chat_ids"`

	DiscordBotToken   string   `yaml:"discord_bot_token"   mask:"true"`
	DiscordChannelIDs []string `yaml:"discord_channel_ids"`
}

// Provider delivers error alerts. SendError must not block on delivery.
type Provider interface {
	SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error
}

// NewProvider builds the provider named by cfg.Provider. The noop provider
// accepts a nil client; every other provider needs one for cooldowns.
func NewProvider(cfg Config, client redis.UniversalClient) (Provider, error) {
	switch cfg.Provider {
	case "", providerNoop:
		return noopProvider{}, nil
	}

	if client == nil {
		return nil, errx.New("[alert]: redis client is required",
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"provider": cfg.Provider}),
		)
	}

	n, err := newNotifier(cfg)
	if err != nil {
		return nil, err
	}

	return newAlertProvider(cfg, newCooldownStore(client, cfg.KeyPrefix), n), nil
}

type noopProvider struct{}

func (noopProvider) SendError(context.Context, string, string, string, map[string]string) error {
	return nil
}
