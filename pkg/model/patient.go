package model

import (
	"time"

	"github.com/google/uuid"
)

// FrequencyType 访视频率类型
type FrequencyType string

const (
	FrequencyDaily    FrequencyType = "DAILY"
	FrequencyWeekly   FrequencyType = "WEEKLY"
	FrequencyBiweekly FrequencyType = "BIWEEKLY"
	FrequencyMonthly  FrequencyType = "MONTHLY"
	FrequencyCustom   FrequencyType = "CUSTOM"
)

// FrequencyRule 访视频率规则
type FrequencyRule struct {
	Type         FrequencyType `json:"type"`
	TimesPerWeek int           `json:"times_per_week,omitempty"` // WEEKLY 时每周次数
	IntervalDays int           `json:"interval_days,omitempty"`  // CUSTOM 时间隔天数
}

// Patient 居家护理患者
type Patient struct {
	BaseModel
	Name       string      `json:"name" db:"name"`
	Document   string      `json:"document,omitempty" db:"document"`
	Phone      string      `json:"phone,omitempty" db:"phone"`
	Address    string      `json:"address" db:"address"`
	Locality   string      `json:"locality,omitempty" db:"locality"`
	ZoneID     string      `json:"zone_id,omitempty" db:"zone_id"`
	Coordinate *Coordinate `json:"coordinate,omitempty" db:"coordinate"`
	Diagnosis  string      `json:"diagnosis,omitempty" db:"diagnosis"`
	Status     string      `json:"status" db:"status"` // active/discharged/suspended

	Frequency              FrequencyRule `json:"frequency" db:"frequency"`
	LastVisitDate          *time.Time    `json:"last_visit_date,omitempty" db:"last_visit_date"`
	NextScheduledVisitDate *time.Time    `json:"next_scheduled_visit_date,omitempty" db:"next_scheduled_visit_date"`

	PreferredProfessionalID *uuid.UUID `json:"preferred_professional_id,omitempty" db:"preferred_professional_id"`
}

// IsActive 检查患者是否在管
func (p *Patient) IsActive() bool {
	return p.Status == "active"
}

// HasCoordinate 检查患者是否有有效坐标
func (p *Patient) HasCoordinate() bool {
	return p.Coordinate != nil && p.Coordinate.Valid()
}

// PatientFilter 患者查询过滤器
type PatientFilter struct {
	ZoneIDs    []string    `json:"zone_ids,omitempty"`
	PatientIDs []uuid.UUID `json:"patient_ids,omitempty"`
}
