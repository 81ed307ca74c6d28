package alert

import (
	"context"
	"errors"
	"time"

	"github.com/code19m/errx"
	"github.com/redis/go-redis/v9"

	"github.com/rise-and-shine/redq/meta"
	"github.com/rise-and-shine/redq/observability/logger"
)

// errorInfo holds error data used for building notification messages.
type errorInfo struct {
	code      string
	message   string
	service   string
	operation string
	details   map[string]string

	frequency int
	window    time.Duration
}

// --- Alert provider ---

// alertProvider implements the Provider interface by counting errors in Redis
// and sending notifications to Discord or Telegram with cooldown management.
type alertProvider struct {
	cfg      Config
	store    *cooldownStore
	notifier notifier
	log      logger.Logger
}

func newAlertProvider(cfg Config, s *cooldownStore, n notifier) *alertProvider {
	return &alertProvider{
		cfg:      cfg,
		store:    s,
		notifier: n,
		log:      logger.Named("alert"),
	}
}

func (ap *alertProvider) SendError(
	ctx context.Context,
	errCode, msg, operation string,
	details map[string]string,
) error {
	if details == nil {
		details = make(map[string]string)
	}
	details["service_version"] = meta.Service().Version

	info := errorInfo{
		code:      errCode,
		message:   msg,
		service:   meta.Service().Name,
		operation: operation,
		details:   details,
		window:    ap.cfg.Cooldown,
	}

	go ap.processAlert(context.WithoutCancel(ctx), info)

	return nil
}

func (ap *alertProvider) processAlert(ctx context.Context, info errorInfo) {
	cooldown := ap.cfg.Cooldown

	frequency, err := ap.store.recordError(ctx, info.service, info.operation, cooldown)
	if err != nil {
		ap.log.With("error", err.Error()).Warn("recordError failed")
		return
	}
	info.frequency = frequency

	err = ap.store.claimAlert(ctx, info.service, info.operation, cooldown)
	if err != nil {
		if errors.Is(err, errAlertCooldown) {
			return
		}
		ap.log.With("error", err.Error()).Warn("claimAlert failed")
		return
	}

	if ap.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ap.cfg.SendTimeout)
		defer cancel()
	}

	if notifyErr := ap.notifier.notify(ctx, info); notifyErr != nil {
		ap.log.With("error", notifyErr.Error()).Warn("notification failed")
	}
}

// --- Redis cooldown store ---

var errAlertCooldown = errors.New("alert is in cooldown period")

type cooldownStore struct {
	client redis.UniversalClient
	prefix string
}

func newCooldownStore(client redis.UniversalClient, prefix string) *cooldownStore {
	if prefix == "" {
		prefix = "redq:alert"
	}
	return &cooldownStore{client: client, prefix: prefix}
}

func (s *cooldownStore) key(kind, service, operation string) string {
	return s.prefix + ":" + kind + ":" + service + ":" + operation
}

// recordError counts one error and returns how many were seen in the current window.
func (s *cooldownStore) recordError(ctx context.Context, service, operation string, window time.Duration) (int, error) {
	key := s.key("freq", service, operation)

	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, errx.Wrap(err)
	}
	if n == 1 && window > 0 {
		if err = s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, errx.Wrap(err)
		}
	}

	return int(n), nil
}

// claimAlert succeeds for at most one caller per cooldown period.
func (s *cooldownStore) claimAlert(ctx context.Context, service, operation string, cooldown time.Duration) error {
	if cooldown <= 0 {
		return nil
	}

	ok, err := s.client.SetNX(ctx, s.key("cooldown", service, operation), time.Now().Unix(), cooldown).Result()
	if err != nil {
		return errx.Wrap(err)
	}
	if !ok {
		return errAlertCooldown
	}

	return nil
}
