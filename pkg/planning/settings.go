package planning

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/paiban/homevisit/pkg/model"
)

// Settings 排程引擎参数
type Settings struct {
	WorkStart              string           `json:"work_start"` // HH:MM
	WorkEnd                string           `json:"work_end"`   // HH:MM
	VisitDurationMinutes   int              `json:"visit_duration_minutes"`
	TravelBufferMinutes    int              `json:"travel_buffer_minutes"`
	DefaultMaxVisitsPerDay int              `json:"default_max_visits_per_day"`
	Location               *time.Location   `json:"-"`
	Workers                int              `json:"workers"` // 0 表示 CPU 核数
	UrgencyKeywords        []string         `json:"urgency_keywords"`
	DefaultTravelMode      model.TravelMode `json:"default_travel_mode"`
	RandomSeed             int64            `json:"random_seed"` // 遗传算法种子，0 表示按时间
}

// DefaultSettings 返回默认参数
func DefaultSettings() Settings {
	return Settings{
		WorkStart:              "08:00",
		WorkEnd:                "18:00",
		VisitDurationMinutes:   30,
		TravelBufferMinutes:    15,
		DefaultMaxVisitsPerDay: 8,
		Location:               time.UTC,
		UrgencyKeywords:        DefaultUrgencyKeywords(),
		DefaultTravelMode:      model.TravelDriving,
	}
}

// DefaultUrgencyKeywords 默认的医疗紧急关键词
func DefaultUrgencyKeywords() []string {
	return []string{"urgente", "urgencia", "urgent", "critico", "crítico", "critical", "grave", "紧急", "危重"}
}

// SlotMinutes 单个访视时段长度（访视+路上缓冲）
func (s Settings) SlotMinutes() int {
	return s.VisitDurationMinutes + s.TravelBufferMinutes
}

func (s Settings) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// clock 一天中的时刻（分钟）
type clock int

func parseClock(v string) (clock, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("时间格式错误 %q: %w", v, err)
	}
	return clock(t.Hour()*60 + t.Minute()), nil
}

func (c clock) on(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(c)/60, int(c)%60, 0, 0, date.Location())
}

// workHours 计算本次排程的工作时段
// 请求要求遵守工作时间时，请求时段被收紧到配置时段之内
func (s Settings) workHours(req model.PlanningRequest) (clock, clock, error) {
	start, err := parseClock(s.WorkStart)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(s.WorkEnd)
	if err != nil {
		return 0, 0, err
	}

	if req.RespectWorkingHours {
		if req.WorkStart != "" {
			reqStart, err := parseClock(req.WorkStart)
			if err != nil {
				return 0, 0, err
			}
			start = max(start, reqStart)
		}
		if req.WorkEnd != "" {
			reqEnd, err := parseClock(req.WorkEnd)
			if err != nil {
				return 0, 0, err
			}
			end = min(end, reqEnd)
		}
	}

	if end <= start {
		return 0, 0, errors.New("工作时段无效: 结束时间不晚于开始时间")
	}
	return start, end, nil
}
