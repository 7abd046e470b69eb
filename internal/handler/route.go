package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/routing"
)

// OptimizeRoute 对单条行程的途经点排序
func (h *Handler) OptimizeRoute(c echo.Context) error {
	var req model.RouteRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, bindError(err))
	}
	if err := h.validator.RouteRequest(req); err != nil {
		return respondError(c, err)
	}

	route, err := h.planner.OptimizeRoute(req.Waypoints, routing.Options{
		JourneyID:          req.JourneyID,
		RespectTimeWindows: req.RespectTimeWindows,
		TravelMode:         req.TravelMode,
		EstimatedStart:     req.EstimatedStart,
		Seed:               req.Seed,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, route)
}

// ValidateRoute 校验已优化的路线
func (h *Handler) ValidateRoute(c echo.Context) error {
	var route model.OptimizedRoute
	if err := c.Bind(&route); err != nil {
		return respondError(c, bindError(err))
	}
	if route.Waypoints == nil {
		return respondError(c, apperrors.EmptyInput("waypoints"))
	}
	return c.JSON(http.StatusOK, routing.ValidateRoute(&route))
}
