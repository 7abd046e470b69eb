// Package middleware 提供HTTP中间件
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/paiban/homevisit/pkg/logger"
)

// ContextKeyRequestID echo 上下文中请求ID的键
const ContextKeyRequestID = "request_id"

// RequestRecorder 记录请求指标
type RequestRecorder interface {
	RecordRequest(method, path string, status int, duration time.Duration)
}

// RequestID 请求ID追踪中间件
// 优先沿用请求头中的 X-Request-Id，没有则生成新的
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			c.Set(ContextKeyRequestID, requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			c.SetRequest(req.WithContext(logger.ContextWithRequestID(req.Context(), requestID)))
			return next(c)
		}
	}
}

// AccessLog 访问日志中间件，同时记录请求指标
// recorder 可为空
func AccessLog(recorder RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			requestID, _ := c.Get(ContextKeyRequestID).(string)

			err := next(c)
			if err != nil {
				// 交给错误处理器写响应，以便记录真实状态码
				c.Error(err)
			}

			duration := time.Since(start)
			status := c.Response().Status
			evt := logger.Info()
			if err != nil || status >= http.StatusInternalServerError {
				evt = logger.Error().Err(err)
			}
			evt.
				Str("request_id", requestID).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("duration", duration).
				Str("remote_ip", c.RealIP()).
				Msg("请求处理")

			if recorder != nil {
				path := c.Path()
				if path == "" {
					path = req.URL.Path
				}
				recorder.RecordRequest(req.Method, path, status, duration)
			}
			return nil
		}
	}
}

// Recover 捕获处理器中的 panic 并返回 500
func Recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithContext(c.Request().Context()).Error().
						Interface("panic", r).
						Bytes("stack", debug.Stack()).
						Msg("处理器发生panic")
					err = echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("内部错误: %v", r))
				}
			}()
			return next(c)
		}
	}
}
