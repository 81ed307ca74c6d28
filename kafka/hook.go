package kafka

import (
	"context"
	"strconv"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/queue"
)

// Header names set on dead-letter messages.
const (
	HeaderQueue       = "redq-queue"
	HeaderOriginQueue = "redq-origin-queue"
	HeaderItemID      = "redq-item-id"
	HeaderRetries     = "redq-retries"
)

// DeadLetterHook publishes every dead-lettered item to the producer topic.
// The message key is the origin queue so items of one queue keep their order.
func DeadLetterHook(p *Producer) queue.ErrorHook {
	return func(ctx context.Context, q *queue.Queue, item *envelope.Envelope) error {
		wire, err := item.Serialize()
		if err != nil {
			return errx.Wrap(err)
		}

		origin := item.OriginQueue()
		if origin == "" {
			origin = q.Name()
		}

		return p.SendMessage(ctx, &Message{
			Key:   []byte(origin),
			Value: []byte(wire),
			Headers: map[string]string{
				HeaderQueue:       q.Name(),
				HeaderOriginQueue: origin,
				HeaderItemID:      strconv.FormatInt(item.ItemID(), 10),
				HeaderRetries:     strconv.Itoa(item.Retries()),
			},
		})
	}
}
