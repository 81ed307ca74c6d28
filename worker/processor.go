package worker

import (
	"context"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/observability/logger"
)

// Processor holds the job specific logic of a worker.
//
// ProcessItem returns nil when the item succeeded. To retry or dead-letter the
// item, call h.RetryItem or h.ErrorItem and return their result. Any other error,
// or a panic, is a processing failure handled by the FailureHandler.
type Processor interface {
	ProcessItem(ctx context.Context, item *envelope.Envelope, h *Handle) error
}

// ProcessFunc adapts a function to the Processor interface.
type ProcessFunc func(ctx context.Context, item *envelope.Envelope, h *Handle) error

// ProcessItem calls f.
func (f ProcessFunc) ProcessItem(ctx context.Context, item *envelope.Envelope, h *Handle) error {
	return f(ctx, item, h)
}

// FailureHandler decides what happens after a processing failure. Returning nil
// keeps the worker watching; returning an error stops Watch with that error.
type FailureHandler func(ctx context.Context, item *envelope.Envelope, h *Handle, err error) error

// StopOnFailure returns the failure unchanged, ending Watch. It is the default.
func StopOnFailure(_ context.Context, _ *envelope.Envelope, _ *Handle, err error) error {
	return err
}

// ErrorItemOnFailure moves failed items to the error queue and keeps watching.
func ErrorItemOnFailure(ctx context.Context, item *envelope.Envelope, h *Handle, _ error) error {
	if err := h.ErrorItem(ctx, item); !IsSignal(err) {
		return err
	}
	return nil
}

// LogAndContinue logs failures and keeps watching. The item is dropped.
func LogAndContinue(l logger.Logger) FailureHandler {
	return func(ctx context.Context, item *envelope.Envelope, _ *Handle, err error) error {
		l.WithContext(ctx).With("item_id", item.ItemID()).Errorx(err)
		return nil
	}
}
