// Package model 定义访视排程与路线优化的核心数据模型
package model

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Coordinate WGS84 坐标（度）
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Valid 检查坐标是否在合法范围内
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// String 返回坐标文本
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// MaxDateRangeDays 一次排程最多覆盖的天数（含首尾）
const MaxDateRangeDays = 92

// DateRange 日期范围
type DateRange struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"` // YYYY-MM-DD
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`   // YYYY-MM-DD
}

// Parse 解析日期范围
func (dr DateRange) Parse(loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(DateLayout, dr.StartDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("开始日期格式错误: %w", err)
	}
	end, err := time.ParseInLocation(DateLayout, dr.EndDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("结束日期格式错误: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("结束日期 %s 早于开始日期 %s", dr.EndDate, dr.StartDate)
	}
	if end.After(start.AddDate(0, 0, MaxDateRangeDays-1)) {
		return time.Time{}, time.Time{}, fmt.Errorf("日期范围超过 %d 天", MaxDateRangeDays)
	}
	return start, end, nil
}

// IsWeekend 判断是否为周末
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
