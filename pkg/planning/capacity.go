package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/paiban/homevisit/pkg/model"
)

// CapacityResolver 计算专业人员在日期范围内的可用容量
type CapacityResolver struct {
	journeys        JourneyRepository
	defaultMaxVisit int
}

// NewCapacityResolver 创建容量解析器
func NewCapacityResolver(journeys JourneyRepository, defaultMaxVisits int) *CapacityResolver {
	return &CapacityResolver{journeys: journeys, defaultMaxVisit: defaultMaxVisits}
}

// PlanDates 枚举 [start, end] 内的日期，不允许周末时跳过周六日
func PlanDates(start, end time.Time, allowWeekends bool) []time.Time {
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !allowWeekends && model.IsWeekend(d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// Resolve 对每位专业人员排除已有未取消行程的日期
// requestMax > 0 时作为每日访视上限的上界
func (r *CapacityResolver) Resolve(ctx context.Context, professionals []*model.Professional, dates []time.Time, requestMax int) ([]model.ProfessionalCapacity, error) {
	capacities := make([]model.ProfessionalCapacity, 0, len(professionals))

	for _, p := range professionals {
		available := make([]string, 0, len(dates))
		busy := 0
		for _, d := range dates {
			date := d.Format(model.DateLayout)
			exists := false
			if r.journeys != nil {
				var err error
				exists, err = r.journeys.ExistsForProfessionalOnDate(ctx, p.ID, date)
				if err != nil {
					return nil, fmt.Errorf("查询专业人员 %s 在 %s 的行程失败: %w", p.ID, date, err)
				}
			}
			if exists {
				busy++
				continue
			}
			available = append(available, date)
		}

		capacity := model.ProfessionalCapacity{
			ProfessionalID:  p.ID,
			Professional:    p,
			AvailableDates:  available,
			MaxVisitsPerDay: r.maxVisits(p, requestMax),
			PreferredZones:  p.PreferredZones,
		}
		if len(dates) > 0 {
			capacity.CurrentLoadPct = float64(busy) / float64(len(dates)) * 100
			capacity.EfficiencyPct = float64(len(available)) / float64(len(dates)) * 100
		}
		capacities = append(capacities, capacity)
	}

	return capacities, nil
}

func (r *CapacityResolver) maxVisits(p *model.Professional, requestMax int) int {
	limit := p.MaxVisitsPerDay
	if limit <= 0 {
		limit = r.defaultMaxVisit
	}
	if requestMax > 0 && requestMax < limit {
		limit = requestMax
	}
	return limit
}
