package stats

import (
	"sort"

	"github.com/google/uuid"
	"github.com/paiban/homevisit/pkg/model"
)

// UnzonedKey 没有区域的患者归入此键
const UnzonedKey = "UNZONED"

// CoverageMetrics 容量利用与区域覆盖指标
type CoverageMetrics struct {
	TotalSlots  int     `json:"total_slots"`
	BookedSlots int     `json:"booked_slots"`
	Utilization float64 `json:"utilization"` // 整体容量利用率 (%)

	DailyCoverage map[string]DayCoverage  `json:"daily_coverage"`
	ZoneCoverage  map[string]ZoneCoverage `json:"zone_coverage"`

	// 问题识别
	SaturatedDates []string `json:"saturated_dates"` // 容量已满的日期
	UnderusedDates []string `json:"underused_dates"` // 利用率低于阈值的日期
}

// DayCoverage 每日容量情况
type DayCoverage struct {
	Date          string  `json:"date"`
	Professionals int     `json:"professionals"`
	TotalSlots    int     `json:"total_slots"`
	BookedSlots   int     `json:"booked_slots"`
	Utilization   float64 `json:"utilization"`
}

// ZoneCoverage 区域内合格患者的排程覆盖
type ZoneCoverage struct {
	ZoneID       string  `json:"zone_id"`
	Eligible     int     `json:"eligible"`
	Scheduled    int     `json:"scheduled"`
	CoverageRate float64 `json:"coverage_rate"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct {
	underusedThreshold float64
}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{underusedThreshold: 30}
}

// SetUnderusedThreshold 设置低利用率阈值 (%)
func (c *CoverageAnalyzer) SetUnderusedThreshold(pct float64) {
	c.underusedThreshold = pct
}

// Analyze 按窗口预约情况统计每日容量，按合格患者统计区域覆盖
func (c *CoverageAnalyzer) Analyze(windows []*model.SchedulingWindow, eligible []model.VisitPriority, visits []*model.Visit) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:  make(map[string]DayCoverage),
		ZoneCoverage:   make(map[string]ZoneCoverage),
		SaturatedDates: make([]string, 0),
		UnderusedDates: make([]string, 0),
	}

	for _, w := range windows {
		day := metrics.DailyCoverage[w.Date]
		day.Date = w.Date
		day.Professionals++
		day.TotalSlots += w.AvailableSlots
		day.BookedSlots += w.BookedSlots
		metrics.DailyCoverage[w.Date] = day

		metrics.TotalSlots += w.AvailableSlots
		metrics.BookedSlots += w.BookedSlots
	}
	metrics.Utilization = percent(metrics.BookedSlots, metrics.TotalSlots)

	dates := make([]string, 0, len(metrics.DailyCoverage))
	for date := range metrics.DailyCoverage {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		day := metrics.DailyCoverage[date]
		day.Utilization = percent(day.BookedSlots, day.TotalSlots)
		metrics.DailyCoverage[date] = day

		switch {
		case day.TotalSlots > 0 && day.BookedSlots >= day.TotalSlots:
			metrics.SaturatedDates = append(metrics.SaturatedDates, date)
		case day.Utilization < c.underusedThreshold:
			metrics.UnderusedDates = append(metrics.UnderusedDates, date)
		}
	}

	scheduled := make(map[uuid.UUID]bool, len(visits))
	for _, v := range visits {
		scheduled[v.PatientID] = true
	}
	for _, vp := range eligible {
		zone := UnzonedKey
		if vp.Patient != nil && vp.Patient.ZoneID != "" {
			zone = vp.Patient.ZoneID
		}
		zc := metrics.ZoneCoverage[zone]
		zc.ZoneID = zone
		zc.Eligible++
		if scheduled[vp.PatientID] {
			zc.Scheduled++
		}
		metrics.ZoneCoverage[zone] = zc
	}
	for zone, zc := range metrics.ZoneCoverage {
		zc.CoverageRate = percent(zc.Scheduled, zc.Eligible)
		metrics.ZoneCoverage[zone] = zc
	}

	return metrics
}

// LowCoverageZones 返回覆盖率低于阈值的区域，按区域名排序
func (m *CoverageMetrics) LowCoverageZones(threshold float64) []ZoneCoverage {
	zones := make([]ZoneCoverage, 0)
	for _, zc := range m.ZoneCoverage {
		if zc.Eligible > 0 && zc.CoverageRate < threshold {
			zones = append(zones, zc)
		}
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ZoneID < zones[j].ZoneID })
	return zones
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
