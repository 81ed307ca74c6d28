package admin

import (
	"context"
	"encoding/json"

	"github.com/samber/lo"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/sorter"
	"github.com/rise-and-shine/redq/stats"
)

//nolint:gochecknoglobals // static sort table
var queueComparators = map[string]sorter.Comparator[QueueView]{
	"name":         sorter.By(func(v QueueView) string { return v.Name }),
	"length":       sorter.By(func(v QueueView) int64 { return v.Length }),
	"error_length": sorter.By(func(v QueueView) int64 { return v.ErrorLength }),
	"scheduled":    sorter.By(func(v QueueView) int64 { return v.Scheduled }),
	"errors":       sorter.By(func(v QueueView) int64 { return v.Stats.Errors }),
	"successes":    sorter.By(func(v QueueView) int64 { return v.Stats.Successes }),
}

//nolint:gochecknoglobals // static list of sortable fields
var sortableFields = lo.Keys(queueComparators)

// QueueView describes one queue.
type QueueView struct {
	Name        string         `json:"name"`
	Length      int64          `json:"length"`
	ErrorLength int64          `json:"error_length"`
	Scheduled   int64          `json:"scheduled"`
	Paused      bool           `json:"paused"`
	MaxRetries  int            `json:"max_retries"`
	Stats       stats.Snapshot `json:"stats"`
}

// ItemView is one stored message. Messages that are not valid envelopes are
// returned verbatim in Raw.
type ItemView struct {
	Item json.RawMessage `json:"item,omitempty"`
	Raw  string          `json:"raw,omitempty"`
}

// PushRequest is the body of POST /queues/:name/items.
type PushRequest struct {
	Contents any            `json:"contents"`
	Metadata map[string]any `json:"metadata"`
}

// PushResponse is the answer to a successful push.
type PushResponse struct {
	Length int64 `json:"length"`
}

func buildQueueView(ctx context.Context, q *queue.Queue) (QueueView, error) {
	view := QueueView{Name: q.Name(), MaxRetries: q.Config().MaxRetries}

	var err error
	if view.Length, err = q.Length(ctx); err != nil {
		return view, err
	}
	if view.ErrorLength, err = q.ErrorQueue().Length(ctx); err != nil {
		return view, err
	}
	if view.Scheduled, err = q.Store().ScheduleLength(ctx, q.ScheduledKey()); err != nil {
		return view, err
	}
	if view.Paused, err = q.Paused(ctx); err != nil {
		return view, err
	}
	if view.Stats, err = q.Stats(ctx); err != nil {
		return view, err
	}

	return view, nil
}

func buildItemViews(wires []string) []ItemView {
	return lo.Map(wires, func(wire string, _ int) ItemView {
		if _, err := envelope.Parse(wire); err != nil {
			return ItemView{Raw: wire}
		}
		return ItemView{Item: json.RawMessage(wire)}
	})
}
