// Package geo 提供球面距离与行程时间估算
package geo

import (
	"math"

	"github.com/paiban/homevisit/pkg/model"
)

// EarthRadiusMeters 地球平均半径（米）
const EarthRadiusMeters = 6371000.0

// 各出行方式的平均速度（km/h）
var speeds = map[model.TravelMode]float64{
	model.TravelDriving: 40,
	model.TravelWalking: 5,
	model.TravelTransit: 25,
}

// Distance Haversine 公式计算两点间的大圆距离（米）
func Distance(a, b model.Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// SpeedKmh 返回出行方式的速度，未知方式按驾车处理
func SpeedKmh(mode model.TravelMode) float64 {
	if s, ok := speeds[mode]; ok {
		return s
	}
	return speeds[model.TravelDriving]
}

// TravelTime 估算行驶给定距离所需的分钟数
func TravelTime(meters float64, mode model.TravelMode) float64 {
	return meters / 1000 / SpeedKmh(mode) * 60
}

// IsKnownMode 检查出行方式是否受支持
func IsKnownMode(mode model.TravelMode) bool {
	_, ok := speeds[mode]
	return ok
}
