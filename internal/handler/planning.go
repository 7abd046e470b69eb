package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/logger"
	"github.com/paiban/homevisit/pkg/model"
)

// planResponse 排程响应
type planResponse struct {
	*model.PlanningResult
	Committed bool `json:"committed"`
}

// GeneratePlan 生成访视计划
// commit=true 时在一个事务内持久化行程和访视
func (h *Handler) GeneratePlan(c echo.Context) error {
	var req model.PlanningRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, bindError(err))
	}
	if err := h.validator.PlanningRequest(req); err != nil {
		return respondError(c, err)
	}

	commit := false
	if raw := c.QueryParam("commit"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return respondError(c, apperrors.InvalidInput("commit", "必须是布尔值"))
		}
		commit = v
	}
	if commit && h.opts.Saver == nil {
		return respondError(c, apperrors.New(apperrors.CodeInvalidInput, "当前部署未启用持久化，不能提交排程"))
	}

	ctx := c.Request().Context()
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	result, err := h.planner.GenerateVisitPlan(ctx, req)
	if err != nil {
		return respondError(c, err)
	}

	if commit {
		if err := h.opts.Saver.SavePlan(ctx, result); err != nil {
			return respondError(c, apperrors.Wrap(err, apperrors.CodeDatabaseError, "排程结果保存失败"))
		}
		logger.WithContext(ctx).Info().
			Str("planning_id", result.PlanningID.String()).
			Int("journeys", len(result.GeneratedJourneys)).
			Msg("排程已提交")
	}

	return c.JSON(http.StatusOK, planResponse{PlanningResult: result, Committed: commit})
}
