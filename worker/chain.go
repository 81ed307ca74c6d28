package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/code19m/errx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/meta"
	"github.com/rise-and-shine/redq/observability/alert"
	"github.com/rise-and-shine/redq/observability/tracing"
)

const stackTraceSize = 4096

type handleFunc func(ctx context.Context, item *envelope.Envelope, h *Handle) error

func (w *Worker) buildProcessChain() handleFunc {
	p := w.processor.ProcessItem

	// build the chain in reverse order (last wrapper execute first)
	p = w.processWithLogging(p)       // 5. logging
	p = w.processWithAlerting(p)      // 4. alerting
	p = w.processWithMetaInjection(p) // 3. meta injection
	p = w.processWithTracing(p)       // 2. tracing
	p = w.processWithRecovery(p)      // 1. recovery (outermost)

	return p
}

func (w *Worker) processWithLogging(next handleFunc) handleFunc {
	return func(ctx context.Context, item *envelope.Envelope, h *Handle) error {
		logger := w.log.Named("access_logger").WithContext(ctx)

		start := time.Now()

		err := next(ctx, item, h)

		logger = logger.With(
			"retries", item.Retries(),
			"duration", time.Since(start).Round(time.Microsecond),
		)

		switch {
		case err == nil:
			logger.Info("[worker]: item processed successfully")
		case IsSignal(err):
			logger.Info(err.Error())
		default:
			logger.Errorx(err)
		}

		return err
	}
}

func (w *Worker) processWithAlerting(next handleFunc) handleFunc {
	return func(ctx context.Context, item *envelope.Envelope, h *Handle) error {
		err := next(ctx, item, h)
		if err == nil || IsSignal(err) {
			return err
		}

		e := errx.AsErrorX(err)
		details := make(map[string]string)
		for k, v := range meta.ExtractMetaFromContext(ctx) {
			details[string(k)] = v
		}
		details["error_trace"] = e.Trace()

		w.sendAlert(ctx, e.Code(), err.Error(), details)

		return err
	}
}

func (w *Worker) processWithMetaInjection(next handleFunc) handleFunc {
	return func(ctx context.Context, item *envelope.Envelope, h *Handle) error {
		ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
			meta.TraceID:        tracing.GetStartingTraceID(ctx),
			meta.ServiceName:    w.opts.serviceName,
			meta.ServiceVersion: w.opts.serviceVersion,
			meta.QueueName:      w.queue.Name(),
			meta.OriginQueue:    item.OriginQueue(),
			meta.ItemID:         strconv.FormatInt(item.ItemID(), 10),
			meta.Retries:        strconv.Itoa(item.Retries()),
			meta.WorkerID:       w.id,
		})
		return next(ctx, item, h)
	}
}

func (w *Worker) processWithTracing(next handleFunc) handleFunc {
	return func(ctx context.Context, item *envelope.Envelope, h *Handle) error {
		ctx = extractTraceContext(ctx, item.Get(envelope.FieldTraceContext))

		ctx, span := otel.Tracer("").Start(ctx, "PROCESS "+w.queue.Name(),
			trace.WithAttributes(
				semconv.MessagingSystem("redis"),
				semconv.MessagingOperationProcess,
				semconv.MessagingDestinationName(w.queue.Name()),
				semconv.MessagingMessageID(strconv.FormatInt(item.ItemID(), 10)),
			),
			trace.WithSpanKind(trace.SpanKindConsumer),
		)

		err := next(ctx, item, h)
		switch {
		case err == nil:
		case IsSignal(err):
			span.AddEvent(err.Error())
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
		return err
	}
}

func (w *Worker) processWithRecovery(next handleFunc) handleFunc {
	return func(ctx context.Context, item *envelope.Envelope, h *Handle) (err error) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := make([]byte, stackTraceSize)
				stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]

				err = errx.New("[worker]: processor panicked",
					errx.WithCode(CodeProcessPanic),
					errx.WithDetails(errx.D{
						"panic_message": fmt.Sprintf("%v", r),
						"stack_trace":   string(stackTrace),
						"item_id":       item.ItemID(),
					}),
				)

				w.sendAlert(ctx, CodeProcessPanic, err.Error(), map[string]string{
					"recover": fmt.Sprintf("%v", r),
					"queue":   w.queue.Name(),
				})
			}
		}()
		return next(ctx, item, h)
	}
}

// sendAlert hands the alert to the global provider, which delivers it in the
// background.
func (w *Worker) sendAlert(ctx context.Context, code, msg string, details map[string]string) {
	err := alert.SendError(ctx, code, msg, "queue: "+w.queue.Name(), details)
	if err != nil {
		w.log.Named("alerting").WithContext(ctx).
			With("alert_send_error", err.Error()).
			Warn("[worker]: failed to send error alert")
	}
}

// extractTraceContext restores the producer's trace context stored in the item.
func extractTraceContext(ctx context.Context, raw any) context.Context {
	carrier := propagation.MapCarrier{}

	switch m := raw.(type) {
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				carrier[k] = s
			}
		}
	case map[string]string:
		for k, v := range m {
			carrier[k] = v
		}
	}

	if len(carrier) == 0 {
		return ctx
	}

	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
