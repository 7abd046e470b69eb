package planning

import (
	"fmt"
	"math"

	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/stats"
)

// 报告阈值
const (
	minSuccessRate     = 80.0
	smallJourneyVisits = 3.0
	largeJourneyVisits = 20.0
	idealMinVisits     = 5.0
	idealMaxVisits     = 15.0
	unevenGini         = 0.3
)

// EfficiencyScore 计算排程效率分数（0-100）
func EfficiencyScore(avgVisitsPerJourney float64, conflicts []model.PlanningConflict) float64 {
	score := 100.0

	switch {
	case avgVisitsPerJourney < smallJourneyVisits:
		score -= 20
	case avgVisitsPerJourney > largeJourneyVisits:
		score -= 15
	}

	for _, c := range conflicts {
		switch c.Severity {
		case model.SeverityHigh:
			score -= 10
		case model.SeverityMedium:
			score -= 5
		}
	}

	if avgVisitsPerJourney >= idealMinVisits && avgVisitsPerJourney <= idealMaxVisits {
		score += 10
	}

	return math.Max(0, math.Min(100, score))
}

// buildSummary 汇总排程结果
func buildSummary(result *model.PlanningResult, professionals []*model.Professional, totalPatients, filteredOut int) model.OptimizationSummary {
	summary := model.OptimizationSummary{
		TotalPatients:       totalPatients,
		FilteredOutPatients: filteredOut,
		ScheduledVisits:     len(result.ScheduledVisits),
		UnscheduledPatients: len(result.UnscheduledPatients),
		JourneysCreated:     len(result.GeneratedJourneys),
		SuccessRate:         100,
	}

	if summary.JourneysCreated > 0 {
		summary.AverageVisitsPerJourney = float64(summary.ScheduledVisits) / float64(summary.JourneysCreated)
	}
	if totalPatients > 0 {
		summary.SuccessRate = float64(summary.ScheduledVisits) / float64(totalPatients) * 100
	}

	for _, j := range result.GeneratedJourneys {
		if j.Optimized {
			summary.OptimizedJourneys++
		}
		summary.TotalDistanceMeters += j.TotalDistanceMeters
		summary.TotalDurationMinutes += j.TotalDurationMinutes
	}
	for _, r := range result.Routes {
		summary.TotalTravelMinutes += r.TotalTravelMinutes
	}

	workload := stats.NewWorkloadAnalyzer().Analyze(result.GeneratedJourneys, professionals)
	summary.WorkloadGini = workload.WorkloadGini
	summary.EfficiencyScore = EfficiencyScore(summary.AverageVisitsPerJourney, result.Conflicts)

	return summary
}

// buildRecommendations 生成可读的改进建议
func buildRecommendations(summary model.OptimizationSummary, conflicts []model.PlanningConflict, optimizeRoutes bool) []string {
	recs := make([]string, 0)

	if summary.TotalPatients > 0 && summary.SuccessRate < minSuccessRate {
		recs = append(recs, fmt.Sprintf("排程成功率 %.1f%% 低于 80%%：建议扩大日期范围或增加专业人员", summary.SuccessRate))
	}
	if summary.JourneysCreated > 0 {
		switch {
		case summary.AverageVisitsPerJourney < smallJourneyVisits:
			recs = append(recs, fmt.Sprintf("行程平均仅 %.1f 个访视：建议合并行程", summary.AverageVisitsPerJourney))
		case summary.AverageVisitsPerJourney > largeJourneyVisits:
			recs = append(recs, fmt.Sprintf("行程平均 %.1f 个访视：建议拆分行程", summary.AverageVisitsPerJourney))
		}
	}

	high := 0
	for _, c := range conflicts {
		if c.Severity == model.SeverityHigh {
			high++
		}
	}
	if high > 0 {
		recs = append(recs, fmt.Sprintf("存在 %d 个高严重度冲突：请优先处理高优先级患者", high))
	}

	if optimizeRoutes && summary.OptimizedJourneys < summary.JourneysCreated {
		recs = append(recs, fmt.Sprintf("%d 个行程未完成路线优化：请检查患者地址或重新优化", summary.JourneysCreated-summary.OptimizedJourneys))
	}
	if summary.WorkloadGini > unevenGini {
		recs = append(recs, fmt.Sprintf("专业人员工作量分布不均（基尼系数 %.2f）：可尝试 LOAD_BALANCED 策略", summary.WorkloadGini))
	}

	return recs
}

// coverageRecommendations 基于容量利用与区域覆盖的建议
func coverageRecommendations(cov *stats.CoverageMetrics, unscheduled int) []string {
	recs := make([]string, 0)

	if unscheduled > 0 && len(cov.SaturatedDates) > 0 {
		recs = append(recs, fmt.Sprintf("%d 个日期容量已满（首个 %s）：建议增加专业人员或允许周末排程",
			len(cov.SaturatedDates), cov.SaturatedDates[0]))
	}
	for _, zc := range cov.LowCoverageZones(minSuccessRate) {
		recs = append(recs, fmt.Sprintf("区域 %s 仅覆盖 %d/%d 名患者：建议为该区域指派专业人员", zc.ZoneID, zc.Scheduled, zc.Eligible))
	}
	if unscheduled == 0 && len(cov.UnderusedDates) > 0 && len(cov.UnderusedDates) == len(cov.DailyCoverage) {
		recs = append(recs, fmt.Sprintf("整体容量利用率仅 %.0f%%：可缩短排程周期或减少当班人员", cov.Utilization))
	}

	return recs
}
