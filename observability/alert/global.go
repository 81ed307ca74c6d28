package alert

import (
	"context"
	"sync"

	"github.com/code19m/errx"
	"github.com/redis/go-redis/v9"
)

//nolint:gochecknoglobals // process-wide provider
var (
	globalMu  sync.RWMutex
	global    Provider = noopProvider{}
	globalSet bool
)

// SetGlobal installs the provider built from cfg as the process-wide one.
// Only the first call succeeds. Until then SendError is a no-op.
func SetGlobal(cfg Config, client redis.UniversalClient) error {
	p, err := NewProvider(cfg, client)
	if err != nil {
		return errx.Wrap(err)
	}
	return SetGlobalProvider(p)
}

// SetGlobalProvider installs p as the process-wide provider. It shares the
// single successful call with SetGlobal.
func SetGlobalProvider(p Provider) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalSet {
		return errx.New("[alert]: global provider is already set")
	}
	global, globalSet = p, true
	return nil
}

// SendError reports an error through the global provider.
func SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error {
	globalMu.RLock()
	p := global
	globalMu.RUnlock()

	return p.SendError(ctx, errCode, msg, operation, details)
}
