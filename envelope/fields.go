package envelope

import (
	"math"
	"time"

	"github.com/spf13/cast"
)

// ItemID returns the per-queue sequence number assigned on push, or 0 if unset.
func (e *Envelope) ItemID() int64 {
	return cast.ToInt64(e.Get(FieldItemID))
}

// Retries returns how many times the item has been retried.
func (e *Envelope) Retries() int {
	return cast.ToInt(e.Get(FieldRetries))
}

// OriginQueue returns the name of the queue the item was first pushed to.
func (e *Envelope) OriginQueue() string {
	return cast.ToString(e.Get(FieldOriginQueue))
}

// SubmittedAt returns the time the item was first pushed.
func (e *Envelope) SubmittedAt() time.Time { return e.timeField(FieldSubmittedAt) }

// LastTriedAt returns the time of the latest retry.
func (e *Envelope) LastTriedAt() time.Time { return e.timeField(FieldLastTriedAt) }

// StartedProcessingAt returns the time a worker picked the item up.
func (e *Envelope) StartedProcessingAt() time.Time { return e.timeField(FieldStartedProcessingAt) }

// FinishedProcessingAt returns the time a worker completed the item.
func (e *Envelope) FinishedProcessingAt() time.Time { return e.timeField(FieldFinishedProcessingAt) }

// FatalErrorAt returns the time the item was moved to an error queue.
func (e *Envelope) FatalErrorAt() time.Time { return e.timeField(FieldFatalErrorAt) }

// RunAt returns the time a deferred item becomes due.
func (e *Envelope) RunAt() time.Time { return e.timeField(FieldRunAt) }

// SetTime stores t under key as fractional epoch seconds.
func (e *Envelope) SetTime(key string, t time.Time) {
	e.Set(key, EpochSeconds(t))
}

// OpenLater reports whether the item carries a run_at in the future of now.
func (e *Envelope) OpenLater(now time.Time) bool {
	runAt := e.RunAt()
	return !runAt.IsZero() && runAt.After(now)
}

func (e *Envelope) timeField(key string) time.Time {
	v := e.Get(key)
	if v == nil || v == "" {
		return time.Time{}
	}

	secs, err := cast.ToFloat64E(v)
	if err == nil {
		return FromEpochSeconds(secs)
	}

	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// EpochSeconds converts t to fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromEpochSeconds is the inverse of EpochSeconds with microsecond precision.
func FromEpochSeconds(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(math.Round(frac*1e6))*int64(time.Microsecond))
}
