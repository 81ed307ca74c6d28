package alert

import (
	"context"
	"strconv"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/queue"
)

// CodeItemDeadLettered is the alert code sent when an item reaches an error queue.
const CodeItemDeadLettered = "ITEM_DEAD_LETTERED"

// DeadLetterHook returns a queue.ErrorHook sending an alert through the global
// provider for every dead-lettered item.
func DeadLetterHook() queue.ErrorHook {
	return func(ctx context.Context, q *queue.Queue, item *envelope.Envelope) error {
		return SendError(ctx, CodeItemDeadLettered,
			"[alert]: item moved to error queue "+q.ErrorQueue().Name(),
			"queue: "+q.Name(),
			map[string]string{
				"item_id":      strconv.FormatInt(item.ItemID(), 10),
				"origin_queue": item.OriginQueue(),
				"retries":      strconv.Itoa(item.Retries()),
				"item":         item.String(),
			},
		)
	}
}
