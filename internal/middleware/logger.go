package middleware

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/trainfood-auth/internal/logging"
)

// RequestLogger logs one line per request.  Server errors log at error
// level, client errors at warn, everything else at info.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.RequestID != "" {
				attrs = append(attrs, "request_id", v.RequestID)
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error.Error())
			}
			logAt(c.Request().Context(), log, level(v.Status), "request", attrs...)
			return nil
		},
	})
}

func level(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func logAt(ctx context.Context, log logging.Logger, lvl slog.Level, msg string, args ...any) {
	switch lvl {
	case slog.LevelError:
		log.Error(ctx, msg, args...)
	case slog.LevelWarn:
		log.Warn(ctx, msg, args...)
	default:
		log.Info(ctx, msg, args...)
	}
}
