// Package stats 提供访视计划的工作量统计分析
package stats

import (
	"math"
	"sort"

	"github.com/paiban/homevisit/pkg/model"
)

// WorkloadMetrics 工作量分布指标
type WorkloadMetrics struct {
	WorkloadGini              float64 `json:"workload_gini"` // 访视数基尼系数 (0=完全均衡, 1=完全集中)
	WorkloadVariance          float64 `json:"workload_variance"`
	WorkloadStdDev            float64 `json:"workload_std_dev"`
	AvgVisitsPerProfessional  float64 `json:"avg_visits_per_professional"`
	MaxVisits                 float64 `json:"max_visits"`
	MinVisits                 float64 `json:"min_visits"`
	VisitsRange               float64 `json:"visits_range"`
	TravelGini                float64 `json:"travel_gini"` // 路上时间基尼系数

	ProfessionalStats []ProfessionalStat `json:"professional_stats"`

	// 综合均衡评分 (0-100)
	OverallBalanceScore float64 `json:"overall_balance_score"`
}

// ProfessionalStat 专业人员统计
type ProfessionalStat struct {
	ProfessionalID   string  `json:"professional_id"`
	ProfessionalName string  `json:"professional_name"`
	Visits           int     `json:"visits"`
	Journeys         int     `json:"journeys"`
	DistanceMeters   float64 `json:"distance_meters"`
	DurationMinutes  float64 `json:"duration_minutes"`
	Deviation        float64 `json:"deviation"` // 与平均值的偏差百分比
}

// WorkloadAnalyzer 工作量分析器
type WorkloadAnalyzer struct{}

// NewWorkloadAnalyzer 创建工作量分析器
func NewWorkloadAnalyzer() *WorkloadAnalyzer {
	return &WorkloadAnalyzer{}
}

// Analyze 统计各专业人员的访视分布；没有行程的专业人员按 0 计入
func (w *WorkloadAnalyzer) Analyze(journeys []*model.Journey, professionals []*model.Professional) *WorkloadMetrics {
	if len(professionals) == 0 {
		return &WorkloadMetrics{OverallBalanceScore: 100}
	}

	index := make(map[string]int, len(professionals))
	stats := make([]ProfessionalStat, len(professionals))
	for i, p := range professionals {
		id := p.ID.String()
		index[id] = i
		stats[i] = ProfessionalStat{ProfessionalID: id, ProfessionalName: p.Name}
	}

	for _, j := range journeys {
		if j.IsCancelled() {
			continue
		}
		i, ok := index[j.ProfessionalID.String()]
		if !ok {
			continue
		}
		stats[i].Journeys++
		stats[i].Visits += len(j.Visits)
		stats[i].DistanceMeters += j.TotalDistanceMeters
		stats[i].DurationMinutes += j.TotalDurationMinutes
	}

	visits := make([]float64, len(stats))
	durations := make([]float64, len(stats))
	for i, s := range stats {
		visits[i] = float64(s.Visits)
		durations[i] = s.DurationMinutes
	}

	avg := mean(visits)
	variance := varianceOf(visits, avg)
	stdDev := math.Sqrt(variance)
	maxV, minV := valueRange(visits)

	for i := range stats {
		if avg > 0 {
			stats[i].Deviation = (float64(stats[i].Visits) - avg) / avg * 100
		}
	}

	gini := Gini(visits)

	return &WorkloadMetrics{
		WorkloadGini:             gini,
		WorkloadVariance:         variance,
		WorkloadStdDev:           stdDev,
		AvgVisitsPerProfessional: avg,
		MaxVisits:                maxV,
		MinVisits:                minV,
		VisitsRange:              maxV - minV,
		TravelGini:               Gini(durations),
		ProfessionalStats:        stats,
		OverallBalanceScore:      balanceScore(gini, stdDev, avg),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func varianceOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// Gini 计算基尼系数，结果在 [0,1]
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}

	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

// balanceScore 基尼系数扣分最多60，变异系数扣分最多40
func balanceScore(gini, stdDev, avg float64) float64 {
	score := 100.0
	score -= math.Min(60, gini*100)
	if avg > 0 {
		score -= math.Min(40, stdDev/avg*40)
	}
	return math.Max(0, score)
}
