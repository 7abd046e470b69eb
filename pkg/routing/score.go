package routing

import (
	"fmt"

	"github.com/paiban/homevisit/pkg/model"
)

// 路线校验阈值
const (
	maxRouteDistanceMeters  = 200000.0
	warnRouteDistanceMeters = 100000.0
	maxRouteMinutes         = 600.0
	warnRouteMinutes        = 480.0
	warnSegmentMeters       = 50000.0
	warnScore               = 50.0
	suggestSplitWaypoints   = 15
)

// OptimizationScore 计算路线诊断分数（0-100）
func OptimizationScore(n int, totalDistanceMeters, totalDurationMinutes float64, method model.OptimizationMethod) float64 {
	score := 100.0
	if n > 0 {
		avgDistance := totalDistanceMeters / float64(n)
		avgDuration := totalDurationMinutes / float64(n)

		switch {
		case avgDistance > 5000:
			score -= 20
		case avgDistance > 3000:
			score -= 10
		}

		switch {
		case avgDuration > 60:
			score -= 15
		case avgDuration > 45:
			score -= 8
		}
	}

	switch method {
	case model.MethodGenetic:
		score += 10
	case model.MethodLocalSearch:
		score += 5
	}

	return clamp(score, 0, 100)
}

// ValidateRoute 检查路线是否可执行
func ValidateRoute(route *model.OptimizedRoute) model.RouteValidation {
	result := model.RouteValidation{
		Errors:      []string{},
		Warnings:    []string{},
		Suggestions: []string{},
	}
	if route == nil {
		result.Errors = append(result.Errors, "路线为空")
		return result
	}

	km := route.TotalDistanceMeters / 1000
	switch {
	case route.TotalDistanceMeters > maxRouteDistanceMeters:
		result.Errors = append(result.Errors, fmt.Sprintf("总距离 %.1f km 超过 200 km 上限", km))
	case route.TotalDistanceMeters > warnRouteDistanceMeters:
		result.Warnings = append(result.Warnings, fmt.Sprintf("总距离 %.1f km 超过 100 km", km))
	}

	switch {
	case route.TotalDurationMinutes > maxRouteMinutes:
		result.Errors = append(result.Errors, fmt.Sprintf("总时长 %.0f 分钟超过 600 分钟上限", route.TotalDurationMinutes))
	case route.TotalDurationMinutes > warnRouteMinutes:
		result.Warnings = append(result.Warnings, fmt.Sprintf("总时长 %.0f 分钟超过 8 小时", route.TotalDurationMinutes))
	}

	for i, seg := range route.Segments {
		if seg.DistanceMeters > warnSegmentMeters {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("第 %d 段距离 %.1f km 超过 50 km", i+1, seg.DistanceMeters/1000))
		}
	}

	if route.OptimizationScore < warnScore {
		result.Warnings = append(result.Warnings, fmt.Sprintf("优化分数 %.0f 偏低", route.OptimizationScore))
	}

	if len(route.Waypoints) > suggestSplitWaypoints {
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("途经点 %d 个，建议拆分为两个行程", len(route.Waypoints)))
	}
	if route.TotalDurationMinutes > 0 && route.TotalTravelMinutes > route.TotalDurationMinutes*0.5 {
		result.Suggestions = append(result.Suggestions, "路上时间超过总时长一半，建议按区域重新分配访视")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
