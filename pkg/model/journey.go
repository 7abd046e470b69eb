package model

import (
	"time"

	"github.com/google/uuid"
)

// JourneyStatus 行程状态
type JourneyStatus string

const (
	JourneyPlanned    JourneyStatus = "PLANNED"
	JourneyInProgress JourneyStatus = "IN_PROGRESS"
	JourneyCompleted  JourneyStatus = "COMPLETED"
	JourneyCancelled  JourneyStatus = "CANCELLED"
)

// VisitStatus 访视状态
type VisitStatus string

const (
	VisitScheduled VisitStatus = "SCHEDULED"
	VisitConfirmed VisitStatus = "CONFIRMED"
	VisitCompleted VisitStatus = "COMPLETED"
	VisitCancelled VisitStatus = "CANCELLED"
)

// ConfirmationStatus 患者确认状态（显式编码，不依赖名称匹配）
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "PENDING"
	ConfirmationConfirmed ConfirmationStatus = "CONFIRMED"
	ConfirmationRejected  ConfirmationStatus = "REJECTED"
)

// Journey 专业人员某一天的工作行程
type Journey struct {
	BaseModel
	ProfessionalID       uuid.UUID     `json:"professional_id" db:"professional_id"`
	ProfessionalName     string        `json:"professional_name,omitempty" db:"-"`
	Date                 string        `json:"date" db:"date"` // YYYY-MM-DD
	Status               JourneyStatus `json:"status" db:"status"`
	StartTime            time.Time     `json:"start_time" db:"start_time"`
	EndTime              time.Time     `json:"end_time" db:"end_time"`
	Visits               []*Visit      `json:"visits" db:"-"`
	TotalDistanceMeters  float64       `json:"total_distance_meters" db:"total_distance_meters"`
	TotalDurationMinutes float64       `json:"total_duration_minutes" db:"total_duration_minutes"`
	Optimized            bool          `json:"optimized" db:"optimized"`
}

// Key 返回行程键（专业人员+日期）
func (j *Journey) Key() string {
	return JourneyKey(j.ProfessionalID, j.Date)
}

// JourneyKey 生成行程键
func JourneyKey(professionalID uuid.UUID, date string) string {
	return professionalID.String() + "|" + date
}

// IsCancelled 检查行程是否已取消
func (j *Journey) IsCancelled() bool {
	return j.Status == JourneyCancelled
}

// Visit 单次患者访视
type Visit struct {
	BaseModel
	JourneyID                uuid.UUID          `json:"journey_id" db:"journey_id"`
	PatientID                uuid.UUID          `json:"patient_id" db:"patient_id"`
	PatientName              string             `json:"patient_name,omitempty" db:"-"`
	ProfessionalID           uuid.UUID          `json:"professional_id" db:"professional_id"`
	ScheduledTime            time.Time          `json:"scheduled_time" db:"scheduled_time"`
	EstimatedDurationMinutes int                `json:"estimated_duration_minutes" db:"estimated_duration_minutes"`
	OrderInRoute             int                `json:"order_in_route" db:"order_in_route"`
	Status                   VisitStatus        `json:"status" db:"status"`
	Confirmation             ConfirmationStatus `json:"confirmation" db:"confirmation"`
	PriorityScore            float64            `json:"priority_score" db:"priority_score"`
}

// EndTime 返回访视预计结束时间
func (v *Visit) EndTime() time.Time {
	return v.ScheduledTime.Add(time.Duration(v.EstimatedDurationMinutes) * time.Minute)
}

// TimeRange 返回访视时间范围
func (v *Visit) TimeRange() TimeRange {
	return TimeRange{Start: v.ScheduledTime, End: v.EndTime()}
}

// ApplyConfirmation 应用患者确认结果
func (v *Visit) ApplyConfirmation(status ConfirmationStatus) {
	v.Confirmation = status
	switch status {
	case ConfirmationConfirmed:
		v.Status = VisitConfirmed
	case ConfirmationRejected:
		v.Status = VisitCancelled
	}
	v.UpdatedAt = time.Now()
}
