package model

import (
	"time"

	"github.com/google/uuid"
)

// TravelMode 出行方式
type TravelMode string

const (
	TravelDriving TravelMode = "DRIVING"
	TravelWalking TravelMode = "WALKING"
	TravelTransit TravelMode = "TRANSIT"
)

// OptimizationMethod 路线优化方法
type OptimizationMethod string

const (
	MethodNone        OptimizationMethod = "NONE"
	MethodExhaustive  OptimizationMethod = "EXHAUSTIVE"
	MethodLocalSearch OptimizationMethod = "LOCAL_SEARCH"
	MethodGenetic     OptimizationMethod = "GENETIC"
)

// Waypoint 路线中的一次访视
type Waypoint struct {
	VisitID                  uuid.UUID  `json:"visit_id" validate:"required"`
	PatientID                uuid.UUID  `json:"patient_id"`
	PatientName              string     `json:"patient_name"`
	Address                  string     `json:"address"`
	Coordinate               Coordinate `json:"coordinate"`
	ScheduledTime            time.Time  `json:"scheduled_time"`
	EstimatedDurationMinutes int        `json:"estimated_duration_minutes"`
	OrderInRoute             int        `json:"order_in_route"`
	IsOptimized              bool       `json:"is_optimized"`
}

// RouteSegment 两个相邻途经点之间的路段
type RouteSegment struct {
	From            uuid.UUID  `json:"from"`
	To              uuid.UUID  `json:"to"`
	DistanceMeters  float64    `json:"distance_meters"`
	DurationMinutes float64    `json:"duration_minutes"`
	TravelMode      TravelMode `json:"travel_mode"`
}

// OptimizedRoute 一次优化运行的结果
type OptimizedRoute struct {
	JourneyID            uuid.UUID          `json:"journey_id"`
	Waypoints            []Waypoint         `json:"waypoints"`
	Segments             []RouteSegment     `json:"segments"`
	TotalDistanceMeters  float64            `json:"total_distance_meters"`
	TotalDurationMinutes float64            `json:"total_duration_minutes"`
	TotalTravelMinutes   float64            `json:"total_travel_minutes"`
	EstimatedStart       time.Time          `json:"estimated_start"`
	EstimatedEnd         time.Time          `json:"estimated_end"`
	OptimizationScore    float64            `json:"optimization_score"`
	Method               OptimizationMethod `json:"method"`
}

// RouteValidation 路线校验结果
type RouteValidation struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// RouteRequest 单条路线优化请求
type RouteRequest struct {
	JourneyID          uuid.UUID  `json:"journey_id"`
	Waypoints          []Waypoint `json:"waypoints" validate:"dive"`
	TravelMode         TravelMode `json:"travel_mode,omitempty" validate:"omitempty,oneof=DRIVING WALKING TRANSIT"`
	RespectTimeWindows bool       `json:"respect_time_windows"`
	EstimatedStart     time.Time  `json:"estimated_start,omitempty"`
	Seed               int64      `json:"seed,omitempty"`
}
