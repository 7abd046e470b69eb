package planning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/logger"
	"github.com/paiban/homevisit/pkg/model"
)

// 冲突严重度阈值
const highSeverityScore = 70.0

// Assignment 一次分配的结果草稿
type Assignment struct {
	Journeys    []*model.Journey
	Visits      []*model.Visit
	Unscheduled []model.UnscheduledPatient
	Conflicts   []model.PlanningConflict

	// 行程对应的窗口，用于优化后重新排时
	windows map[uuid.UUID]*model.SchedulingWindow
}

// AssignmentEngine 贪心分配引擎
// 窗口选择不考虑地理位置
type AssignmentEngine struct {
	visitMinutes int
	logger       *logger.PlannerLogger
}

// NewAssignmentEngine 创建分配引擎
func NewAssignmentEngine(visitMinutes int, log *logger.PlannerLogger) *AssignmentEngine {
	if log == nil {
		log = logger.NewPlannerLogger()
	}
	return &AssignmentEngine{visitMinutes: visitMinutes, logger: log}
}

// Assign 按优先级降序把患者绑定到窗口
// PRIORITY_FIRST 取第一个有空位的窗口；LOAD_BALANCED 取负载比例最低的窗口
func (e *AssignmentEngine) Assign(priorities []model.VisitPriority, windows []*model.SchedulingWindow, professionals map[uuid.UUID]*model.Professional, strategy model.PlanningStrategy) *Assignment {
	result := &Assignment{
		Journeys:    make([]*model.Journey, 0),
		Visits:      make([]*model.Visit, 0, len(priorities)),
		Unscheduled: make([]model.UnscheduledPatient, 0),
		Conflicts:   make([]model.PlanningConflict, 0),
		windows:     make(map[uuid.UUID]*model.SchedulingWindow),
	}
	journeys := make(map[string]*model.Journey)

	for _, vp := range priorities {
		w := selectWindow(windows, strategy)
		if w == nil {
			e.reject(result, vp)
			continue
		}

		key := model.JourneyKey(w.ProfessionalID, w.Date)
		journey, ok := journeys[key]
		if !ok {
			journey = newJourney(w, professionals[w.ProfessionalID])
			journeys[key] = journey
			result.Journeys = append(result.Journeys, journey)
			result.windows[journey.ID] = w
		}

		visit := &model.Visit{
			BaseModel:                model.NewBaseModel(),
			JourneyID:                journey.ID,
			PatientID:                vp.PatientID,
			ProfessionalID:           w.ProfessionalID,
			ScheduledTime:            w.NextSlotTime(),
			EstimatedDurationMinutes: e.visitMinutes,
			OrderInRoute:             w.BookedSlots + 1,
			Status:                   model.VisitScheduled,
			Confirmation:             model.ConfirmationPending,
			PriorityScore:            vp.PriorityScore,
		}
		if vp.Patient != nil {
			visit.PatientName = vp.Patient.Name
		}
		w.BookedSlots++

		journey.Visits = append(journey.Visits, visit)
		journey.TotalDurationMinutes += float64(e.visitMinutes)
		result.Visits = append(result.Visits, visit)
	}

	return result
}

// WindowFor 返回行程所在的窗口
func (a *Assignment) WindowFor(journeyID uuid.UUID) *model.SchedulingWindow {
	return a.windows[journeyID]
}

func selectWindow(windows []*model.SchedulingWindow, strategy model.PlanningStrategy) *model.SchedulingWindow {
	var best *model.SchedulingWindow
	for _, w := range windows {
		if !w.HasCapacity() {
			continue
		}
		if strategy != model.StrategyLoadBalanced {
			return w
		}
		if best == nil || w.LoadRatio() < best.LoadRatio() {
			best = w
		}
	}
	return best
}

func newJourney(w *model.SchedulingWindow, p *model.Professional) *model.Journey {
	j := &model.Journey{
		BaseModel:      model.NewBaseModel(),
		ProfessionalID: w.ProfessionalID,
		Date:           w.Date,
		Status:         model.JourneyPlanned,
		StartTime:      w.StartTime,
		EndTime:        w.EndTime,
		Visits:         make([]*model.Visit, 0, w.AvailableSlots),
	}
	if p != nil {
		j.ProfessionalName = p.Name
	}
	return j
}

func (e *AssignmentEngine) reject(result *Assignment, vp model.VisitPriority) {
	name := ""
	if vp.Patient != nil {
		name = vp.Patient.Name
	}
	severity := model.SeverityMedium
	if vp.PriorityScore >= highSeverityScore {
		severity = model.SeverityHigh
	}
	desc := fmt.Sprintf("患者 %s（优先级 %.0f）没有可用的专业人员窗口", name, vp.PriorityScore)
	cause := apperrors.CapacityExhausted(vp.PatientID.String())

	result.Unscheduled = append(result.Unscheduled, model.UnscheduledPatient{
		PatientID:     vp.PatientID,
		PatientName:   name,
		PriorityScore: vp.PriorityScore,
		Reason:        string(cause.Code),
	})
	result.Conflicts = append(result.Conflicts, model.PlanningConflict{
		Type:                model.ConflictProfessionalUnavailable,
		Severity:            severity,
		Description:         desc,
		AffectedEntities:    []string{vp.PatientID.String()},
		SuggestedResolution: "扩大日期范围、允许周末或增加专业人员",
	})
	e.logger.Conflict(string(model.ConflictProfessionalUnavailable), vp.PatientID.String(), cause.Message)
}

// reslot 按路线顺序在原窗口时段上重新排定访视时间
// 不在路线中的访视排在路线之后
func reslot(journey *model.Journey, route *model.OptimizedRoute, w *model.SchedulingWindow) {
	byID := make(map[uuid.UUID]*model.Visit, len(journey.Visits))
	for _, v := range journey.Visits {
		byID[v.ID] = v
	}

	ordered := make([]*model.Visit, 0, len(journey.Visits))
	placed := make(map[uuid.UUID]bool, len(journey.Visits))
	for _, wp := range route.Waypoints {
		if v, ok := byID[wp.VisitID]; ok && !placed[v.ID] {
			ordered = append(ordered, v)
			placed[v.ID] = true
		}
	}
	for _, v := range journey.Visits {
		if !placed[v.ID] {
			ordered = append(ordered, v)
		}
	}

	slot := time.Duration(w.SlotMinutes) * time.Minute
	for i, v := range ordered {
		v.OrderInRoute = i + 1
		v.ScheduledTime = w.StartTime.Add(time.Duration(i) * slot)
		v.UpdatedAt = time.Now()
	}
	journey.Visits = ordered

	for i := range route.Waypoints {
		if v, ok := byID[route.Waypoints[i].VisitID]; ok {
			route.Waypoints[i].ScheduledTime = v.ScheduledTime
		}
	}
}
