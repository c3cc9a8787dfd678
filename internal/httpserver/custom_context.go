package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type loggerKey struct{}

type CustomContext struct {
	echo.Context
	RequestID string
	Logger    *slog.Logger
}

func (s *HTTPServer) CreateReqContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := uuid.NewString()
		logger := s.logger.With("req_id", reqID)
		ctx := context.WithValue(c.Request().Context(), loggerKey{}, logger)
		c.SetRequest(c.Request().WithContext(ctx))
		cc := &CustomContext{
			Context:   c,
			RequestID: reqID,
			Logger:    logger,
		}
		return next(cc)
	}
}

func loggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}

// Casts to custom context for the handler, so this doesn't have to be done per handler
func ccHandler(h func(*CustomContext) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c.(*CustomContext))
	}
}

func (c *CustomContext) internalErrorMessage() string {
	return "internal error, request id: " + c.RequestID
}

func (c *CustomContext) InternalError(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.Logger.Warn(err.Error())
	} else {
		c.Logger.Error(msg, "error", err)
	}
	return c.String(http.StatusInternalServerError, c.internalErrorMessage())
}
