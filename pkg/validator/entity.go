// Package validator 提供访视与行程的业务校验及请求结构校验
package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/homevisit/pkg/model"
)

// EntityConfig 实体校验阈值
type EntityConfig struct {
	MaxVisitMinutes     int // 单次访视时长上限（分钟）
	MaxJourneyHours     int // 行程总时长上限（小时）
	MaxVisitsPerJourney int // 行程访视数量建议上限
}

// DefaultEntityConfig 返回默认配置
func DefaultEntityConfig() *EntityConfig {
	return &EntityConfig{
		MaxVisitMinutes:     240,
		MaxJourneyHours:     10,
		MaxVisitsPerJourney: 15,
	}
}

// EntityValidator 访视/行程校验器
type EntityValidator struct {
	config *EntityConfig
}

// NewEntityValidator 创建实体校验器
func NewEntityValidator(config *EntityConfig) *EntityValidator {
	if config == nil {
		config = DefaultEntityConfig()
	}
	return &EntityValidator{config: config}
}

// Validate 校验访视或行程，返回错误、警告与建议
func (v *EntityValidator) Validate(entity any) model.ValidationResult {
	var r model.ValidationResult
	switch e := entity.(type) {
	case *model.Visit:
		v.validateVisit(&r, e)
	case *model.Journey:
		v.validateJourney(&r, e)
	default:
		r.Errors = append(r.Errors, fmt.Sprintf("不支持的实体类型 %T", entity))
	}
	return r
}

func (v *EntityValidator) validateVisit(r *model.ValidationResult, visit *model.Visit) {
	if visit == nil {
		r.Errors = append(r.Errors, "访视为空")
		return
	}
	if visit.PatientID == uuid.Nil {
		r.Errors = append(r.Errors, "访视缺少患者")
	}
	if visit.ProfessionalID == uuid.Nil {
		r.Errors = append(r.Errors, "访视缺少专业人员")
	}
	if visit.ScheduledTime.IsZero() {
		r.Errors = append(r.Errors, "访视缺少预约时间")
	}
	if visit.EstimatedDurationMinutes <= 0 {
		r.Errors = append(r.Errors, "访视时长必须大于0")
	} else if visit.EstimatedDurationMinutes > v.config.MaxVisitMinutes {
		r.Warnings = append(r.Warnings, fmt.Sprintf("访视时长 %d 分钟超过 %d 分钟", visit.EstimatedDurationMinutes, v.config.MaxVisitMinutes))
	}

	switch visit.Status {
	case model.VisitScheduled, model.VisitConfirmed, model.VisitCompleted, model.VisitCancelled:
	default:
		r.Errors = append(r.Errors, fmt.Sprintf("未知访视状态 %q", visit.Status))
	}
	switch visit.Confirmation {
	case model.ConfirmationPending, model.ConfirmationConfirmed, model.ConfirmationRejected:
	default:
		r.Errors = append(r.Errors, fmt.Sprintf("未知确认状态 %q", visit.Confirmation))
	}
	if visit.Confirmation == model.ConfirmationRejected && visit.Status != model.VisitCancelled {
		r.Warnings = append(r.Warnings, "患者已拒绝但访视未取消")
	}

	if visit.OrderInRoute < 1 {
		r.Warnings = append(r.Warnings, "访视未设置路线顺序")
	}
}

func (v *EntityValidator) validateJourney(r *model.ValidationResult, j *model.Journey) {
	if j == nil {
		r.Errors = append(r.Errors, "行程为空")
		return
	}
	if j.ProfessionalID == uuid.Nil {
		r.Errors = append(r.Errors, "行程缺少专业人员")
	}
	if _, err := time.Parse(model.DateLayout, j.Date); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("行程日期 %q 格式错误", j.Date))
	}
	if !j.EndTime.After(j.StartTime) {
		r.Errors = append(r.Errors, "行程结束时间必须晚于开始时间")
	}

	window := model.TimeRange{Start: j.StartTime, End: j.EndTime}
	for _, visit := range j.Visits {
		if visit.ProfessionalID != j.ProfessionalID {
			r.Errors = append(r.Errors, fmt.Sprintf("访视 %s 的专业人员与行程不一致", visit.ID))
		}
		if visit.ScheduledTime.Before(window.Start) || visit.EndTime().After(window.End) {
			r.Warnings = append(r.Warnings, fmt.Sprintf("访视 %s 超出行程时段", visit.ID))
		}
	}
	r.Errors = append(r.Errors, detectOverlaps(j.Visits)...)

	if hours := j.TotalDurationMinutes / 60; hours > float64(v.config.MaxJourneyHours) {
		r.Warnings = append(r.Warnings, fmt.Sprintf("行程总时长 %.1f 小时，超过 %d 小时", hours, v.config.MaxJourneyHours))
	}
	if len(j.Visits) > v.config.MaxVisitsPerJourney {
		r.Suggestions = append(r.Suggestions, fmt.Sprintf("行程包含 %d 个访视，建议拆分", len(j.Visits)))
	}
	if len(j.Visits) > 1 && !j.Optimized {
		r.Suggestions = append(r.Suggestions, "行程尚未进行路线优化")
	}
}

// detectOverlaps 检测时间重叠的相邻访视（已取消的不计）
func detectOverlaps(visits []*model.Visit) []string {
	active := make([]*model.Visit, 0, len(visits))
	for _, visit := range visits {
		if visit.Status != model.VisitCancelled {
			active = append(active, visit)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].ScheduledTime.Before(active[j].ScheduledTime)
	})

	var errs []string
	for i := 0; i < len(active)-1; i++ {
		current, next := active[i], active[i+1]
		if current.TimeRange().Overlaps(next.TimeRange()) {
			errs = append(errs, fmt.Sprintf("访视 %s 与 %s 时间重叠", current.ID, next.ID))
		}
	}
	return errs
}
