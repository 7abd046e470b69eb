package planning

import (
	"strings"
	"testing"

	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/stats"
)

func TestEfficiencyScore(t *testing.T) {
	high := model.PlanningConflict{Severity: model.SeverityHigh}
	medium := model.PlanningConflict{Severity: model.SeverityMedium}
	low := model.PlanningConflict{Severity: model.SeverityLow}

	tests := []struct {
		name      string
		avg       float64
		conflicts []model.PlanningConflict
		expected  float64
	}{
		{"理想区间封顶100", 8, nil, 100},
		{"行程过小", 2, nil, 80},
		{"行程过大", 21, nil, 85},
		{"中间区间", 4, nil, 100},
		{"冲突扣分", 4, []model.PlanningConflict{high, medium, low}, 85},
		{"理想区间加分抵消扣分", 6, []model.PlanningConflict{high, high}, 90},
		{"下限为0", 1, []model.PlanningConflict{high, high, high, high, high, high, high, high, high}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EfficiencyScore(tt.avg, tt.conflicts); got != tt.expected {
				t.Errorf("EfficiencyScore = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestBuildRecommendations(t *testing.T) {
	tests := []struct {
		name     string
		summary  model.OptimizationSummary
		conflict []model.PlanningConflict
		optimize bool
		contains string
		wantNone bool
	}{
		{
			name:     "一切正常",
			summary:  model.OptimizationSummary{TotalPatients: 10, ScheduledVisits: 10, SuccessRate: 100, JourneysCreated: 2, AverageVisitsPerJourney: 5},
			wantNone: true,
		},
		{
			name:     "成功率低",
			summary:  model.OptimizationSummary{TotalPatients: 10, ScheduledVisits: 5, SuccessRate: 50, JourneysCreated: 1, AverageVisitsPerJourney: 5},
			contains: "成功率",
		},
		{
			name:     "建议合并",
			summary:  model.OptimizationSummary{TotalPatients: 4, SuccessRate: 100, JourneysCreated: 2, AverageVisitsPerJourney: 2},
			contains: "合并",
		},
		{
			name:     "建议拆分",
			summary:  model.OptimizationSummary{TotalPatients: 42, SuccessRate: 100, JourneysCreated: 2, AverageVisitsPerJourney: 21},
			contains: "拆分",
		},
		{
			name:     "高严重度冲突",
			summary:  model.OptimizationSummary{SuccessRate: 100},
			conflict: []model.PlanningConflict{{Severity: model.SeverityHigh}},
			contains: "高严重度",
		},
		{
			name:     "未优化行程",
			summary:  model.OptimizationSummary{TotalPatients: 10, SuccessRate: 100, JourneysCreated: 2, OptimizedJourneys: 1, AverageVisitsPerJourney: 5},
			optimize: true,
			contains: "路线优化",
		},
		{
			name:     "工作量不均",
			summary:  model.OptimizationSummary{SuccessRate: 100, WorkloadGini: 0.5},
			contains: "LOAD_BALANCED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := buildRecommendations(tt.summary, tt.conflict, tt.optimize)
			if tt.wantNone {
				if len(recs) != 0 {
					t.Errorf("不应有建议, got %v", recs)
				}
				return
			}
			found := false
			for _, r := range recs {
				if strings.Contains(r, tt.contains) {
					found = true
				}
			}
			if !found {
				t.Errorf("建议中缺少 %q: %v", tt.contains, recs)
			}
		})
	}
}

func TestCoverageRecommendations(t *testing.T) {
	saturated := &model.SchedulingWindow{Date: "2026-03-02", AvailableSlots: 2, BookedSlots: 2}
	idle := &model.SchedulingWindow{Date: "2026-03-03", AvailableSlots: 10, BookedSlots: 1}
	north := newPatient("甲", 0, 0)
	north.ZoneID = "norte"
	eligible := []model.VisitPriority{{PatientID: north.ID, Patient: north}}

	tests := []struct {
		name        string
		windows     []*model.SchedulingWindow
		visits      []*model.Visit
		unscheduled int
		expected    int
	}{
		{"容量已满且有未排患者", []*model.SchedulingWindow{saturated}, nil, 1, 2},
		{"容量已满但全部排上", []*model.SchedulingWindow{saturated}, []*model.Visit{{PatientID: north.ID}}, 0, 0},
		{"全部日期利用率偏低", []*model.SchedulingWindow{idle}, []*model.Visit{{PatientID: north.ID}}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cov := stats.NewCoverageAnalyzer().Analyze(tt.windows, eligible, tt.visits)
			if got := coverageRecommendations(cov, tt.unscheduled); len(got) != tt.expected {
				t.Errorf("建议数 = %d (%v), expected %d", len(got), got, tt.expected)
			}
		})
	}
}
