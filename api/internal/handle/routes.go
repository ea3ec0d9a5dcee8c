package handle

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"visual-assist/api/internal/logger"
)

type ServerOptions struct {
	BodyLimit    string   // echo size expression, e.g. "10M"
	AllowOrigins []string // CORS origins; empty means "*"
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(opts ServerOptions, h *Handle) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				args = append(args, "err", v.Error)
			}
			logger.L().Info("http", args...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	RegisterRoutes(e, h, opts.BodyLimit)
	return e
}

func RegisterRoutes(e *echo.Echo, h *Handle, bodyLimit string) {
	e.GET("/status", h.Status)

	var mw []echo.MiddlewareFunc
	if bodyLimit != "" {
		mw = append(mw, middleware.BodyLimit(bodyLimit))
	}
	api := e.Group("/api")
	api.POST("/assist", h.Assist, mw...)
}
