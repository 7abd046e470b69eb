// Package planning 提供居家访视的排程引擎
package planning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/routing"
)

// PatientRepository 患者仓储
type PatientRepository interface {
	FindEligible(ctx context.Context, filter model.PatientFilter) ([]*model.Patient, error)
}

// ProfessionalRepository 专业人员仓储
type ProfessionalRepository interface {
	FindActive(ctx context.Context, filter model.ProfessionalFilter) ([]*model.Professional, error)
}

// JourneyRepository 行程仓储
type JourneyRepository interface {
	ExistsForProfessionalOnDate(ctx context.Context, professionalID uuid.UUID, date string) (bool, error)
}

// FrequencyCalculator 访视频率计算
type FrequencyCalculator interface {
	NextVisitDate(rule model.FrequencyRule, lastVisit time.Time) (time.Time, error)
	VisitsPerMonth(rule model.FrequencyRule) (float64, error)
}

// EntityValidator 业务规则校验，entity 为 *model.Visit 或 *model.Journey
type EntityValidator interface {
	Validate(entity any) model.ValidationResult
}

// Geocoder 地址解析
type Geocoder = routing.Geocoder

// Recorder 排程指标记录
type Recorder interface {
	RecordPlanning(strategy, status string, duration time.Duration, unscheduled int)
	RecordRouteOptimization(method string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordPlanning(string, string, time.Duration, int) {}
func (noopRecorder) RecordRouteOptimization(string, time.Duration) {}
