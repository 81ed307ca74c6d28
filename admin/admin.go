// Package admin serves an HTTP API for inspecting and operating queues.
package admin

import (
	"context"
	"strconv"
	"strings"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rise-and-shine/redq/hasher"
	"github.com/rise-and-shine/redq/manager"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/pagination"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/sorter"
	"github.com/rise-and-shine/redq/val"
)

// Handler implements the admin endpoints on top of a manager.
type Handler struct {
	mgr  *manager.Manager
	opts options
	log  logger.Logger
}

// New creates a handler for queues of mgr.
func New(mgr *manager.Manager, opts ...Option) *Handler {
	o := options{defaultLimit: 50, maxLimit: 1000}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("admin")
	}
	if o.defaultLimit > o.maxLimit {
		o.defaultLimit = o.maxLimit
	}

	return &Handler{mgr: mgr, opts: o, log: o.logger}
}

// Register mounts the API under /api/v1 and, when metrics are configured, GET /metrics.
func (h *Handler) Register(r fiber.Router) {
	v1 := r.Group("/api/v1/queues", h.authenticate)
	v1.Get("/", h.listQueues)
	v1.Get("/:name", h.getQueue)
	v1.Delete("/:name", h.deleteQueue)
	v1.Get("/:name/items", h.peekItems)
	v1.Post("/:name/items", h.pushItem)
	v1.Get("/:name/errors", h.peekErrors)
	v1.Post("/:name/pause", h.pause)
	v1.Post("/:name/unpause", h.unpause)
	v1.Post("/:name/stats/reset", h.resetStats)

	if h.opts.gatherer != nil {
		r.Get("/metrics", h.refreshMetrics, adaptor.HTTPHandler(
			promhttp.HandlerFor(h.opts.gatherer, promhttp.HandlerOpts{}),
		))
	}
}

func (h *Handler) authenticate(c *fiber.Ctx) error {
	if h.opts.tokenHash == "" {
		return c.Next()
	}

	tok, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || tok == "" || !hasher.Compare(tok, h.opts.tokenHash) {
		return errx.New("invalid or missing admin token",
			errx.WithCode(CodeUnauthorized),
			errx.WithType(errx.T_Authentication),
		)
	}

	return c.Next()
}

// listQueues answers with one page of queues. Query parameters: sort (for
// example "length:desc,name:asc"), page_number and page_size.
func (h *Handler) listQueues(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var page pagination.Request
	if err := c.QueryParser(&page); err != nil {
		return errx.Wrap(err, errx.WithCode(CodeInvalidQuery), errx.WithType(errx.T_Validation))
	}
	if err := val.ValidateSchema(page); err != nil {
		return errx.Wrap(err)
	}
	page.Normalize(pagination.WithMaxPageSize(h.opts.maxLimit))

	queues, err := h.mgr.AllQueues(ctx)
	if err != nil {
		return errx.Wrap(err)
	}

	views := make([]QueueView, 0, len(queues))
	for _, q := range queues {
		view, err := buildQueueView(ctx, q)
		if err != nil {
			return errx.Wrap(err)
		}
		views = append(views, view)
	}

	sorter.Apply(views, sorter.MakeFromStr(c.Query("sort"), sortableFields...), queueComparators)

	return c.JSON(pagination.Paginate(views, page))
}

func (h *Handler) getQueue(c *fiber.Ctx) error {
	ctx := c.UserContext()

	q, err := h.registered(ctx, c.Params("name"))
	if err != nil {
		return err
	}

	view, err := buildQueueView(ctx, q)
	if err != nil {
		return errx.Wrap(err)
	}

	return c.JSON(view)
}

func (h *Handler) pushItem(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req PushRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Wrap(err, errx.WithCode(CodeInvalidBody), errx.WithType(errx.T_Validation))
	}

	length, err := h.mgr.Push(ctx, c.Params("name"), req.Contents, req.Metadata)
	if err != nil {
		return errx.Wrap(err)
	}

	return c.Status(fiber.StatusCreated).JSON(PushResponse{Length: length})
}

func (h *Handler) peekItems(c *fiber.Ctx) error {
	q, err := h.registered(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return h.peek(c, q.Name())
}

func (h *Handler) peekErrors(c *fiber.Ctx) error {
	q, err := h.registered(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return h.peek(c, q.ErrorQueue().Name())
}

func (h *Handler) peek(c *fiber.Ctx, list string) error {
	limit, err := h.limit(c)
	if err != nil {
		return err
	}

	wires, err := h.mgr.Store().ListRange(c.UserContext(), list, 0, int64(limit)-1)
	if err != nil {
		return errx.Wrap(err)
	}

	return c.JSON(buildItemViews(wires))
}

func (h *Handler) pause(c *fiber.Ctx) error {
	return h.setPaused(c, true)
}

func (h *Handler) unpause(c *fiber.Ctx) error {
	return h.setPaused(c, false)
}

func (h *Handler) setPaused(c *fiber.Ctx, paused bool) error {
	ctx := c.UserContext()

	q, err := h.registered(ctx, c.Params("name"))
	if err != nil {
		return err
	}

	if paused {
		err = q.Pause(ctx)
	} else {
		err = q.Unpause(ctx)
	}
	if err != nil {
		return errx.Wrap(err)
	}

	h.log.WithContext(ctx).With("queue", q.Name(), "paused", paused).Info("[admin]: pause flag changed")
	return c.JSON(fiber.Map{"paused": paused})
}

func (h *Handler) resetStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	q, err := h.registered(ctx, c.Params("name"))
	if err != nil {
		return err
	}

	if err = q.ResetStatistics(ctx); err != nil {
		return errx.Wrap(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) deleteQueue(c *fiber.Ctx) error {
	ctx := c.UserContext()

	q, err := h.registered(ctx, c.Params("name"))
	if err != nil {
		return err
	}

	if err = h.mgr.DeleteQueue(ctx, q.Name()); err != nil {
		return errx.Wrap(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) refreshMetrics(c *fiber.Ctx) error {
	if h.opts.metrics == nil {
		return c.Next()
	}

	ctx := c.UserContext()
	queues, err := h.mgr.AllQueues(ctx)
	if err != nil {
		return errx.Wrap(err)
	}
	if err = h.opts.metrics.Refresh(ctx, queues); err != nil {
		return errx.Wrap(err)
	}

	return c.Next()
}

// registered returns the named queue without creating it.
func (h *Handler) registered(ctx context.Context, name string) (*queue.Queue, error) {
	ok, err := h.mgr.HasQueue(ctx, name)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	if !ok {
		return nil, errx.New("[admin]: queue not found",
			errx.WithCode(CodeQueueNotFound),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"queue": name}),
		)
	}

	q, err := h.mgr.Queue(ctx, name)
	return q, errx.Wrap(err)
}

func (h *Handler) limit(c *fiber.Ctx) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return h.opts.defaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > h.opts.maxLimit {
		return 0, errx.New("[admin]: limit must be a positive integer not above the maximum",
			errx.WithCode(CodeInvalidLimit),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"limit": raw, "max": h.opts.maxLimit}),
		)
	}

	return limit, nil
}
