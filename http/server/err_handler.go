package server

import (
	"errors"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/redq/meta"
)

// codeRouterError is the code of errors raised by fiber itself, such as unknown routes.
const codeRouterError = "ROUTER_ERROR"

//nolint:gochecknoglobals // static lookup tables
var (
	statusByType = map[errx.Type]int{
		errx.T_Authentication: fiber.StatusUnauthorized,
		errx.T_Forbidden:      fiber.StatusForbidden,
		errx.T_NotFound:       fiber.StatusNotFound,
		errx.T_Validation:     fiber.StatusBadRequest,
		errx.T_Conflict:       fiber.StatusConflict,
		errx.T_Throttling:     fiber.StatusTooManyRequests,
	}

	typeByStatus = map[int]errx.Type{
		fiber.StatusUnauthorized:    errx.T_Authentication,
		fiber.StatusForbidden:       errx.T_Forbidden,
		fiber.StatusNotFound:        errx.T_NotFound,
		fiber.StatusConflict:        errx.T_Conflict,
		fiber.StatusTooManyRequests: errx.T_Throttling,
	}
)

type errorResponse struct {
	TraceID string      `json:"trace_id"`
	Error   errorSchema `json:"error"`
}

type errorSchema struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Trace   string            `json:"trace,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

// WriteErrorResponse answers c with the JSON form of err and returns err as an
// errx.ErrorX. Trace and details are left out when hideDetails is set.
func WriteErrorResponse(c *fiber.Ctx, err error, hideDetails bool) error {
	e := toErrorX(err)

	body := errorResponse{
		TraceID: meta.Find(c.UserContext(), meta.TraceID),
		Error: errorSchema{
			Code:    e.Code(),
			Message: e.Error(),
			Fields:  e.Fields(),
		},
	}
	if !hideDetails {
		body.Error.Trace = e.Trace()
		body.Error.Details = e.Details()
	}

	_ = c.Status(statusOf(e.Type())).JSON(body)

	return e
}

// StatusCode returns the HTTP status err is answered with.
func StatusCode(err error) int {
	return statusOf(toErrorX(err).Type())
}

// customErrorHandler writes errors nothing else answered. Responses that already
// carry an error status are left alone.
func customErrorHandler(hideDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			return nil
		}
		_ = WriteErrorResponse(c, err, hideDetails)
		return nil
	}
}

func statusOf(t errx.Type) int {
	if status, ok := statusByType[t]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// toErrorX converts fiber errors into ROUTER_ERROR errx errors of the matching
// type; anything else goes through errx.AsErrorX.
func toErrorX(err error) errx.ErrorX {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return errx.AsErrorX(err)
	}

	t, ok := typeByStatus[fiberErr.Code]
	switch {
	case ok:
	case fiberErr.Code >= fiber.StatusBadRequest && fiberErr.Code < fiber.StatusInternalServerError:
		t = errx.T_Validation
	default:
		t = errx.T_Internal
	}

	return errx.AsErrorX(errx.New(fiberErr.Message,
		errx.WithCode(codeRouterError),
		errx.WithType(t),
		errx.WithDetails(errx.D{"fiber_code": fiberErr.Code}),
	))
}
