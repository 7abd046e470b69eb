package planning

import (
	"sort"
	"time"

	"github.com/paiban/homevisit/pkg/model"
)

// WindowBuilder 将容量展开为可预约窗口
type WindowBuilder struct {
	slotMinutes int
	loc         *time.Location
}

// NewWindowBuilder 创建窗口构建器
func NewWindowBuilder(slotMinutes int, loc *time.Location) *WindowBuilder {
	if loc == nil {
		loc = time.UTC
	}
	return &WindowBuilder{slotMinutes: slotMinutes, loc: loc}
}

// Build 为每个 (专业人员, 日期) 生成一个窗口，按日期再按专业人员输入顺序排列
// 空位数 = min(floor(工作分钟 / 时段长度), 每日上限)，空位为0的窗口不生成
func (b *WindowBuilder) Build(capacities []model.ProfessionalCapacity, workStart, workEnd clock) []*model.SchedulingWindow {
	workMinutes := int(workEnd - workStart)
	slots := 0
	if b.slotMinutes > 0 {
		slots = workMinutes / b.slotMinutes
	}

	var windows []*model.SchedulingWindow
	for _, c := range capacities {
		available := min(slots, c.MaxVisitsPerDay)
		if available <= 0 {
			continue
		}
		zone := ""
		if len(c.PreferredZones) > 0 {
			zone = c.PreferredZones[0]
		}

		for _, date := range c.AvailableDates {
			day, err := time.ParseInLocation(model.DateLayout, date, b.loc)
			if err != nil {
				continue
			}
			windows = append(windows, &model.SchedulingWindow{
				StartTime:      workStart.on(day),
				EndTime:        workEnd.on(day),
				Date:           date,
				AvailableSlots: available,
				ProfessionalID: c.ProfessionalID,
				ZoneID:         zone,
				SlotMinutes:    b.slotMinutes,
			})
		}
	}

	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Date < windows[j].Date
	})
	return windows
}
