package model

import (
	"time"

	"github.com/google/uuid"
)

// PriorityClass 优先级类别过滤
type PriorityClass string

const (
	PriorityAll    PriorityClass = "ALL"
	PriorityHigh   PriorityClass = "HIGH"   // >= 75
	PriorityMedium PriorityClass = "MEDIUM" // 50-74
	PriorityLow    PriorityClass = "LOW"    // < 50
)

// Matches 检查分数是否属于该类别
func (c PriorityClass) Matches(score float64) bool {
	switch c {
	case PriorityHigh:
		return score >= 75
	case PriorityMedium:
		return score >= 50 && score < 75
	case PriorityLow:
		return score < 50
	default:
		return true
	}
}

// PlanningStrategy 排程策略
type PlanningStrategy string

const (
	StrategyPriorityFirst PlanningStrategy = "PRIORITY_FIRST"
	StrategyLoadBalanced  PlanningStrategy = "LOAD_BALANCED"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictProfessionalUnavailable ConflictType = "PROFESSIONAL_UNAVAILABLE"
	ConflictZoneOverload            ConflictType = "ZONE_OVERLOAD"
	ConflictPatientConstraint       ConflictType = "PATIENT_CONSTRAINT"
	ConflictScheduling              ConflictType = "SCHEDULING_CONFLICT"
)

// Severity 冲突严重程度
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// PriorityFactors 优先级因子
type PriorityFactors struct {
	OverdueDays       int     `json:"overdue_days"`
	FrequencyPerMonth float64 `json:"frequency_per_month"`
	MedicalUrgency    bool    `json:"medical_urgency"`
	PatientPreference float64 `json:"patient_preference"`
}

// VisitPriority 患者访视优先级（每次排程重新计算）
type VisitPriority struct {
	PatientID           uuid.UUID       `json:"patient_id"`
	Patient             *Patient        `json:"-"`
	PriorityScore       float64         `json:"priority_score"`
	Factors             PriorityFactors `json:"factors"`
	LastVisitDate       *time.Time      `json:"last_visit_date,omitempty"`
	NextRecommendedDate time.Time       `json:"next_recommended_date"`
}

// ProfessionalCapacity 专业人员在日期范围内的容量快照
type ProfessionalCapacity struct {
	ProfessionalID  uuid.UUID     `json:"professional_id"`
	Professional    *Professional `json:"-"`
	AvailableDates  []string      `json:"available_dates"`
	MaxVisitsPerDay int           `json:"max_visits_per_day"`
	PreferredZones  []string      `json:"preferred_zones,omitempty"`
	CurrentLoadPct  float64       `json:"current_load_pct"`
	EfficiencyPct   float64       `json:"efficiency_pct"`
}

// SchedulingWindow 可预约的容量窗口（仅在一次排程内可变）
type SchedulingWindow struct {
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Date           string    `json:"date"`
	AvailableSlots int       `json:"available_slots"`
	BookedSlots    int       `json:"booked_slots"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	ZoneID         string    `json:"zone_id,omitempty"`
	SlotMinutes    int       `json:"slot_minutes"`
}

// HasCapacity 检查窗口是否还有空位
func (w *SchedulingWindow) HasCapacity() bool {
	return w.BookedSlots < w.AvailableSlots
}

// LoadRatio 返回已预约比例
func (w *SchedulingWindow) LoadRatio() float64 {
	if w.AvailableSlots == 0 {
		return 1
	}
	return float64(w.BookedSlots) / float64(w.AvailableSlots)
}

// NextSlotTime 返回下一个空位的开始时间
func (w *SchedulingWindow) NextSlotTime() time.Time {
	return w.StartTime.Add(time.Duration(w.BookedSlots*w.SlotMinutes) * time.Minute)
}

// PlanningRequest 排程请求
type PlanningRequest struct {
	DateRange
	ZoneIDs             []string         `json:"zone_ids,omitempty"`
	ProfessionalIDs     []uuid.UUID      `json:"professional_ids,omitempty"`
	PatientIDs          []uuid.UUID      `json:"patient_ids,omitempty"`
	PriorityClass       PriorityClass    `json:"priority_class,omitempty" validate:"omitempty,oneof=ALL HIGH MEDIUM LOW"`
	Strategy            PlanningStrategy `json:"strategy,omitempty" validate:"omitempty,oneof=PRIORITY_FIRST LOAD_BALANCED"`
	MaxVisitsPerDay     int              `json:"max_visits_per_day,omitempty" validate:"gte=0,lte=25"`
	AllowWeekends       bool             `json:"allow_weekends"`
	RespectWorkingHours bool             `json:"respect_working_hours"`
	WorkStart           string           `json:"work_start,omitempty" validate:"omitempty,datetime=15:04"`
	WorkEnd             string           `json:"work_end,omitempty" validate:"omitempty,datetime=15:04"`
	OptimizeRoutes      bool             `json:"optimize_routes"`
	TravelMode          TravelMode       `json:"travel_mode,omitempty" validate:"omitempty,oneof=DRIVING WALKING TRANSIT"`
}

// PlanningConflict 阻碍患者排程的结构化障碍
type PlanningConflict struct {
	Type                ConflictType `json:"type"`
	Severity            Severity     `json:"severity"`
	Description         string       `json:"description"`
	AffectedEntities    []string     `json:"affected_entities"`
	SuggestedResolution string       `json:"suggested_resolution,omitempty"`
}

// UnscheduledPatient 未能排程的患者
type UnscheduledPatient struct {
	PatientID     uuid.UUID `json:"patient_id"`
	PatientName   string    `json:"patient_name"`
	PriorityScore float64   `json:"priority_score"`
	Reason        string    `json:"reason"`
}

// OptimizationSummary 排程汇总
type OptimizationSummary struct {
	TotalPatients           int     `json:"total_patients"`
	FilteredOutPatients     int     `json:"filtered_out_patients"`
	ScheduledVisits         int     `json:"scheduled_visits"`
	UnscheduledPatients     int     `json:"unscheduled_patients"`
	JourneysCreated         int     `json:"journeys_created"`
	OptimizedJourneys       int     `json:"optimized_journeys"`
	AverageVisitsPerJourney float64 `json:"average_visits_per_journey"`
	SuccessRate             float64 `json:"success_rate"`
	TotalDistanceMeters     float64 `json:"total_distance_meters"`
	TotalTravelMinutes      float64 `json:"total_travel_minutes"`
	TotalDurationMinutes    float64 `json:"total_duration_minutes"`
	WorkloadGini            float64 `json:"workload_gini"`
	CapacityUtilization     float64 `json:"capacity_utilization"`
	EfficiencyScore         float64 `json:"efficiency_score"`
}

// ValidationResult 实体校验结果
type ValidationResult struct {
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// IsValid 是否无错误
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// PlanningResult 一次排程运行的不可变快照
type PlanningResult struct {
	PlanningID          uuid.UUID                   `json:"planning_id"`
	GeneratedJourneys   []*Journey                  `json:"generated_journeys"`
	ScheduledVisits     []*Visit                    `json:"scheduled_visits"`
	UnscheduledPatients []UnscheduledPatient        `json:"unscheduled_patients"`
	Conflicts           []PlanningConflict          `json:"conflicts"`
	Routes              map[string]*OptimizedRoute  `json:"routes,omitempty"`
	OptimizationSummary OptimizationSummary         `json:"optimization_summary"`
	ValidationResults   map[string]ValidationResult `json:"validation_results"`
	Recommendations     []string                    `json:"recommendations"`
	Warnings            []string                    `json:"warnings,omitempty"`
	ExecutedAt          time.Time                   `json:"executed_at"`
	ProcessingTimeMs    int64                       `json:"processing_time_ms"`
}
