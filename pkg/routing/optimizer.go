// Package routing 提供单日行程的访视顺序优化
package routing

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/geo"
	"github.com/paiban/homevisit/pkg/logger"
	"github.com/paiban/homevisit/pkg/model"
)

// MaxWaypoints 单条路线的途经点上限
const MaxWaypoints = 25

// 策略切换阈值
const (
	exhaustiveLimit  = 5
	localSearchLimit = 12
)

// Options 路线优化选项
type Options struct {
	JourneyID          uuid.UUID        `json:"journey_id"`
	RespectTimeWindows bool             `json:"respect_time_windows"`
	TravelMode         model.TravelMode `json:"travel_mode"`
	EstimatedStart     time.Time        `json:"estimated_start"` // 为零时取最早的预约时间
	Seed               int64            `json:"seed"`            // 0 表示按时间取随机种子
}

// Optimizer 路线优化器
type Optimizer struct {
	maxWaypoints int
}

// NewOptimizer 创建路线优化器
func NewOptimizer() *Optimizer {
	return &Optimizer{maxWaypoints: MaxWaypoints}
}

// SelectMethod 按途经点数量选择优化策略
func SelectMethod(n int) model.OptimizationMethod {
	switch {
	case n == 0:
		return model.MethodNone
	case n <= exhaustiveLimit:
		return model.MethodExhaustive
	case n <= localSearchLimit:
		return model.MethodLocalSearch
	default:
		return model.MethodGenetic
	}
}

// Optimize 对途经点排序以缩短总里程
// 空输入返回空路线；超过上限返回 TOO_MANY_WAYPOINTS
func (o *Optimizer) Optimize(waypoints []model.Waypoint, opts Options) (*model.OptimizedRoute, error) {
	n := len(waypoints)
	if n == 0 {
		return &model.OptimizedRoute{
			JourneyID:         opts.JourneyID,
			Waypoints:         []model.Waypoint{},
			Segments:          []model.RouteSegment{},
			EstimatedStart:    opts.EstimatedStart,
			EstimatedEnd:      opts.EstimatedStart,
			OptimizationScore: 100,
			Method:            model.MethodNone,
		}, nil
	}
	if n > o.maxWaypoints {
		return nil, apperrors.TooManyWaypoints(n, o.maxWaypoints)
	}
	for _, wp := range waypoints {
		if !wp.Coordinate.Valid() {
			return nil, apperrors.InvalidInput("coordinate", "途经点 "+wp.VisitID.String()+" 坐标无效")
		}
	}
	if opts.TravelMode == "" {
		opts.TravelMode = model.TravelDriving
	}

	dm := newDistanceMatrix(waypoints)
	initial := initialOrder(waypoints, opts.RespectTimeWindows)
	method := SelectMethod(n)

	var order []int
	switch method {
	case model.MethodExhaustive:
		var err error
		order, err = exhaustiveOrder(dm)
		if err != nil {
			return nil, err
		}
	case model.MethodLocalSearch:
		order = localSearchOrder(dm, initial)
	default:
		order = geneticOrder(dm, initial, newRand(opts.Seed))
	}

	// 不劣于输入顺序
	naive := identityOrder(n)
	if dm.pathLength(naive) < dm.pathLength(order) {
		order = naive
	}

	route := buildRoute(waypoints, order, dm, opts, method)

	logger.Debug().
		Str("journey_id", opts.JourneyID.String()).
		Str("method", string(method)).
		Int("waypoints", n).
		Float64("distance_m", route.TotalDistanceMeters).
		Float64("score", route.OptimizationScore).
		Msg("路线优化完成")

	return route, nil
}

// NaiveDistance 返回按输入顺序行进的总距离（米）
func NaiveDistance(waypoints []model.Waypoint) float64 {
	if len(waypoints) < 2 {
		return 0
	}
	dm := newDistanceMatrix(waypoints)
	return dm.pathLength(identityOrder(len(waypoints)))
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// distanceMatrix 途经点间距离矩阵（米）
type distanceMatrix [][]float64

func newDistanceMatrix(waypoints []model.Waypoint) distanceMatrix {
	n := len(waypoints)
	dm := make(distanceMatrix, n)
	for i := range dm {
		dm[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := geo.Distance(waypoints[i].Coordinate, waypoints[j].Coordinate)
			dm[i][j] = d
			dm[j][i] = d
		}
	}
	return dm
}

// pathLength 开放路径总长度，不含返程
func (dm distanceMatrix) pathLength(order []int) float64 {
	total := 0.0
	for i := 1; i < len(order); i++ {
		total += dm[order[i-1]][order[i]]
	}
	return total
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// initialOrder 需要遵守时间窗时按预约时间升序作为初始顺序
func initialOrder(waypoints []model.Waypoint, respectTimeWindows bool) []int {
	order := identityOrder(len(waypoints))
	if respectTimeWindows {
		sort.SliceStable(order, func(i, j int) bool {
			return waypoints[order[i]].ScheduledTime.Before(waypoints[order[j]].ScheduledTime)
		})
	}
	return order
}

func buildRoute(waypoints []model.Waypoint, order []int, dm distanceMatrix, opts Options, method model.OptimizationMethod) *model.OptimizedRoute {
	n := len(order)
	route := &model.OptimizedRoute{
		JourneyID: opts.JourneyID,
		Waypoints: make([]model.Waypoint, n),
		Segments:  make([]model.RouteSegment, 0, n-1),
		Method:    method,
	}

	visitMinutes := 0
	for pos, idx := range order {
		wp := waypoints[idx]
		wp.OrderInRoute = pos + 1
		wp.IsOptimized = true
		route.Waypoints[pos] = wp
		visitMinutes += wp.EstimatedDurationMinutes

		if pos == 0 {
			continue
		}
		prev := order[pos-1]
		dist := dm[prev][idx]
		travel := geo.TravelTime(dist, opts.TravelMode)
		route.Segments = append(route.Segments, model.RouteSegment{
			From:            waypoints[prev].VisitID,
			To:              wp.VisitID,
			DistanceMeters:  dist,
			DurationMinutes: travel,
			TravelMode:      opts.TravelMode,
		})
		route.TotalDistanceMeters += dist
		route.TotalTravelMinutes += travel
	}

	route.TotalDurationMinutes = route.TotalTravelMinutes + float64(visitMinutes)
	route.EstimatedStart = opts.EstimatedStart
	if route.EstimatedStart.IsZero() {
		route.EstimatedStart = earliestScheduled(waypoints)
	}
	route.EstimatedEnd = route.EstimatedStart.Add(time.Duration(route.TotalDurationMinutes * float64(time.Minute)))
	route.OptimizationScore = OptimizationScore(n, route.TotalDistanceMeters, route.TotalDurationMinutes, method)

	return route
}

func earliestScheduled(waypoints []model.Waypoint) time.Time {
	var earliest time.Time
	for _, wp := range waypoints {
		if wp.ScheduledTime.IsZero() {
			continue
		}
		if earliest.IsZero() || wp.ScheduledTime.Before(earliest) {
			earliest = wp.ScheduledTime
		}
	}
	return earliest
}
