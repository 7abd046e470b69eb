package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paiban/homevisit/pkg/model"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        model.Coordinate
		b        model.Coordinate
		expected float64 // 米
		delta    float64
	}{
		{
			name:     "同一位置",
			a:        model.Coordinate{Lat: 4.7110, Lng: -74.0721},
			b:        model.Coordinate{Lat: 4.7110, Lng: -74.0721},
			expected: 0,
			delta:    0.001,
		},
		{
			name:     "赤道上一度经度",
			a:        model.Coordinate{Lat: 0, Lng: 0},
			b:        model.Coordinate{Lat: 0, Lng: 1},
			expected: 111195,
			delta:    10,
		},
		{
			name:     "北京到上海",
			a:        model.Coordinate{Lat: 39.9042, Lng: 116.4074},
			b:        model.Coordinate{Lat: 31.2304, Lng: 121.4737},
			expected: 1066000,
			delta:    10000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("Distance() = %v, expected %v ± %v", got, tt.expected, tt.delta)
			}
		})
	}
}

func TestDistance_Symmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		a := model.Coordinate{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		b := model.Coordinate{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}

		if Distance(a, b) != Distance(b, a) {
			t.Fatalf("距离不对称: %v %v", a, b)
		}
		if Distance(a, a) != 0 {
			t.Fatalf("同点距离不为0: %v", a)
		}
	}
}

func TestTravelTime(t *testing.T) {
	tests := []struct {
		name     string
		meters   float64
		mode     model.TravelMode
		expected float64
	}{
		{"驾车40公里", 40000, model.TravelDriving, 60},
		{"步行5公里", 5000, model.TravelWalking, 60},
		{"公交25公里", 25000, model.TravelTransit, 60},
		{"驾车10公里", 10000, model.TravelDriving, 15},
		{"未知方式按驾车", 40000, model.TravelMode("BIKE"), 60},
		{"零距离", 0, model.TravelDriving, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TravelTime(tt.meters, tt.mode)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("TravelTime() = %v, expected %v", got, tt.expected)
			}
		})
	}
}
