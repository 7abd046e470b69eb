// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/logger"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/planning"
	"github.com/paiban/homevisit/pkg/validator"
)

// PlanSaver 持久化排程结果
type PlanSaver interface {
	SavePlan(ctx context.Context, result *model.PlanningResult) error
}

// HealthChecker 依赖健康检查
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options 处理器可选依赖
type Options struct {
	Saver   PlanSaver     // 为空时不支持 commit
	Health  HealthChecker // 为空时只报告进程存活
	Timeout time.Duration // 单次排程超时，0 表示不限
	Version string
}

// Handler 排程与路线 API 处理器
type Handler struct {
	planner   *planning.Planner
	validator *validator.RequestValidator
	opts      Options
}

// NewHandler 创建处理器
func NewHandler(planner *planning.Planner, opts Options) *Handler {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Handler{
		planner:   planner,
		validator: validator.NewRequestValidator(),
		opts:      opts,
	}
}

// RegisterRoutes 挂载所有路由
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/version", h.Version)

	g := e.Group("/api/v1")
	g.GET("", h.Index)
	g.POST("/planning/generate", h.GeneratePlan)
	g.POST("/routes/optimize", h.OptimizeRoute)
	g.POST("/routes/validate", h.ValidateRoute)
}

// Health 健康检查
func (h *Handler) Health(c echo.Context) error {
	if h.opts.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.opts.Health.Health(ctx); err != nil {
			logger.WithContext(ctx).Warn().Err(err).Msg("健康检查失败")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "degraded",
				"service": "homevisit",
				"error":   err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "homevisit"})
}

// Version 版本信息
func (h *Handler) Version(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"version": h.opts.Version})
}

// Index API 根路由
func (h *Handler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message": "居家访视排程 API v1",
		"endpoints": map[string]string{
			"generate": "POST /api/v1/planning/generate?commit=true",
			"optimize": "POST /api/v1/routes/optimize",
			"validate": "POST /api/v1/routes/validate",
		},
	})
}

// errorResponse 错误响应
type errorResponse struct {
	Error   bool           `json:"error"`
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
	Details string         `json:"details,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
	Stage   string         `json:"stage,omitempty"`
	Partial any            `json:"partial_result,omitempty"`
}

// respondError 返回错误响应
// 非 AppError 按内部错误处理
func respondError(c echo.Context, err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.CodeInternal, "内部错误")
	}
	resp := errorResponse{
		Error:   true,
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
		Fields:  appErr.Fields,
	}

	status := appErr.HTTPStatus

	var failed *planning.FailedError
	if errors.As(err, &failed) {
		resp.Stage = string(failed.Stage)
		if failed.Partial != nil {
			resp.Partial = failed.Partial
		}
		// 排程超时按网关超时返回
		if errors.Is(failed.Err, context.DeadlineExceeded) {
			resp.Code = apperrors.CodeTimeout
			resp.Message = "排程超时，已返回截止前的部分结果"
			status = http.StatusGatewayTimeout
		}
	}

	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request().Context()).Error().Err(err).Msg("请求处理失败")
	}
	return c.JSON(status, resp)
}

func bindError(err error) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput, "请求体不是有效的JSON").WithCause(err)
}
