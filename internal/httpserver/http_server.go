package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/net/http2"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/storage"
	"github.com/leengari/postddl/internal/storage/memstore"
)

// Backend is the region store the debug API inspects
type Backend interface {
	storage.Client
	Tables() []string
	Stats(table string) (memstore.TableStats, error)
	Put(table string, key []byte, cells ...data.Cell) error
}

// HTTPServer is the region server's debug API
type HTTPServer struct {
	Echo    *echo.Echo
	backend Backend
	logger  *slog.Logger
}

type CustomValidator struct {
	validator *validator.Validate
}

// New builds the debug API without binding it
func New(backend Backend, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HTTPServer{
		Echo:    echo.New(),
		backend: backend,
		logger:  logger,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	s.Echo.Use(s.CreateReqContext)
	s.Echo.Use(s.LoggerMiddleware)
	s.Echo.Use(middleware.CORS())
	s.Echo.Validator = &CustomValidator{validator: validator.New()}

	// technical - no auth
	s.Echo.GET("/hc", s.HealthCheck)

	tables := s.Echo.Group("/tables")
	tables.GET("", ccHandler(s.ListTables))
	tables.GET("/:table", ccHandler(s.TableStats))
	tables.PUT("/:table/rows", ccHandler(s.PutRows))
	s.Echo.POST("/scan", ccHandler(s.Scan))

	return s
}

// Start serves h2c on listener in the background. Serving errors other
// than a shutdown are sent on the returned channel.
func (s *HTTPServer) Start(listener net.Listener) <-chan error {
	errCh := make(chan error, 1)
	s.Echo.Listener = listener
	go func() {
		defer close(errCh)
		s.logger.Info("starting h2c server", "addr", listener.Addr().String())
		err := s.Echo.StartH2CServer("", &http2.Server{})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("h2c server failed", "error", err)
			errCh <- err
		}
	}()
	return errCh
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func ValidateRequest(c echo.Context, s interface{}) error {
	if err := c.Bind(s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(s); err != nil {
		return err
	}
	return nil
}

func (*HTTPServer) HealthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *HTTPServer) LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			// default handler
			c.Error(err)
		}
		stop := time.Since(start)
		req := c.Request()
		res := c.Response()

		p := req.URL.Path
		if p == "" {
			p = "/"
		}

		loggerFrom(req.Context(), s.logger).Debug("req received",
			"method", req.Method,
			"remote_ip", c.RealIP(),
			"handler_path", c.Path(),
			"path", p,
			"status", res.Status,
			"latency_ns", int64(stop),
			"protocol", req.Proto,
			"bytes_out", res.Size,
		)
		return nil
	}
}
