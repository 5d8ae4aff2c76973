package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one structured line per request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			entry := logrus.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Path(),
				"uri":        c.Request().RequestURI,
				"status":     status,
				"duration":   time.Since(start).String(),
				"client_ip":  c.RealIP(),
				"user_agent": c.Request().UserAgent(),
			})
			switch {
			case status >= 500:
				entry.Error("request failed")
			case status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request processed")
			}
			return nil
		}
	}
}

// Recover turns a handler panic into a 500 and logs the stack.
func Recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithFields(logrus.Fields{
						"path":  c.Path(),
						"panic": fmt.Sprint(r),
						"stack": string(debug.Stack()),
					}).Error("handler panicked")
					err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
				}
			}()
			return next(c)
		}
	}
}
