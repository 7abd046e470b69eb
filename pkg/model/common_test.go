package model

import (
	"math"
	"testing"
	"time"
)

func TestCoordinate_Valid(t *testing.T) {
	tests := []struct {
		name     string
		coord    Coordinate
		expected bool
	}{
		{"波哥大", Coordinate{Lat: 4.6097, Lng: -74.0817}, true},
		{"边界", Coordinate{Lat: -90, Lng: 180}, true},
		{"纬度越界", Coordinate{Lat: 90.1, Lng: 0}, false},
		{"经度越界", Coordinate{Lat: 0, Lng: -180.5}, false},
		{"NaN", Coordinate{Lat: math.NaN(), Lng: 0}, false},
		{"无穷", Coordinate{Lat: 0, Lng: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coord.Valid(); got != tt.expected {
				t.Errorf("Valid() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestTimeRange_Overlaps(t *testing.T) {
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }
	first := TimeRange{Start: at(0), End: at(30)}

	tests := []struct {
		name     string
		other    TimeRange
		expected bool
	}{
		{"首尾相接", TimeRange{Start: at(30), End: at(60)}, false},
		{"部分重叠", TimeRange{Start: at(15), End: at(45)}, true},
		{"完全包含", TimeRange{Start: at(5), End: at(10)}, true},
		{"之前", TimeRange{Start: at(-30), End: at(0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := first.Overlaps(tt.other); got != tt.expected {
				t.Errorf("Overlaps() = %v, expected %v", got, tt.expected)
			}
		})
	}

	if !first.Contains(at(0)) || first.Contains(at(30)) {
		t.Error("Contains 应为左闭右开")
	}
	if first.Duration() != 30*time.Minute {
		t.Errorf("Duration() = %v", first.Duration())
	}
}

func TestDateRange_Parse(t *testing.T) {
	tests := []struct {
		name    string
		dr      DateRange
		wantErr bool
	}{
		{"单日", DateRange{StartDate: "2026-03-02", EndDate: "2026-03-02"}, false},
		{"一周", DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}, false},
		{"结束早于开始", DateRange{StartDate: "2026-03-05", EndDate: "2026-03-02"}, true},
		{"格式错误", DateRange{StartDate: "02/03/2026", EndDate: "2026-03-02"}, true},
		{"恰好92天", DateRange{StartDate: "2026-01-01", EndDate: "2026-04-02"}, false},
		{"超过92天", DateRange{StartDate: "2026-01-01", EndDate: "2026-04-03"}, true},
		{"跨越数百年", DateRange{StartDate: "2026-01-01", EndDate: "2526-01-01"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.dr.Parse(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsWeekend(t *testing.T) {
	if IsWeekend(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Error("2026-03-02 是周一")
	}
	if !IsWeekend(time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)) {
		t.Error("2026-03-07 是周六")
	}
}

func TestNewBaseModel(t *testing.T) {
	base := NewBaseModel()

	if base.ID.String() == "" {
		t.Error("ID should not be empty")
	}
	if base.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
	if base.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should not be zero")
	}
}
