package frequency

import (
	"math"
	"testing"
	"time"

	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/model"
)

func TestCalculator_VisitsPerMonth(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name     string
		rule     model.FrequencyRule
		expected float64
	}{
		{"每日", model.FrequencyRule{Type: model.FrequencyDaily}, 30},
		{"每周2次", model.FrequencyRule{Type: model.FrequencyWeekly, TimesPerWeek: 2}, 8.66},
		{"每周1次", model.FrequencyRule{Type: model.FrequencyWeekly, TimesPerWeek: 1}, 4.33},
		{"双周", model.FrequencyRule{Type: model.FrequencyBiweekly}, 2.17},
		{"每月", model.FrequencyRule{Type: model.FrequencyMonthly}, 1},
		{"每10天", model.FrequencyRule{Type: model.FrequencyCustom, IntervalDays: 10}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.VisitsPerMonth(tt.rule)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("VisitsPerMonth() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestCalculator_NextVisitDate(t *testing.T) {
	calc := NewCalculator()
	last := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		rule     model.FrequencyRule
		expected string
	}{
		{"每日", model.FrequencyRule{Type: model.FrequencyDaily}, "2026-02-01"},
		{"每周3次", model.FrequencyRule{Type: model.FrequencyWeekly, TimesPerWeek: 3}, "2026-02-02"},
		{"每周1次", model.FrequencyRule{Type: model.FrequencyWeekly, TimesPerWeek: 1}, "2026-02-07"},
		{"双周", model.FrequencyRule{Type: model.FrequencyBiweekly}, "2026-02-14"},
		{"每月", model.FrequencyRule{Type: model.FrequencyMonthly}, "2026-03-03"},
		{"每5天", model.FrequencyRule{Type: model.FrequencyCustom, IntervalDays: 5}, "2026-02-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.NextVisitDate(tt.rule, last)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Format(model.DateLayout) != tt.expected {
				t.Errorf("NextVisitDate() = %s, expected %s", got.Format(model.DateLayout), tt.expected)
			}
		})
	}
}

func TestCalculator_InvalidRules(t *testing.T) {
	calc := NewCalculator()
	last := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rule model.FrequencyRule
	}{
		{"未设置", model.FrequencyRule{}},
		{"未知类型", model.FrequencyRule{Type: "HOURLY"}},
		{"每周0次", model.FrequencyRule{Type: model.FrequencyWeekly}},
		{"每周8次", model.FrequencyRule{Type: model.FrequencyWeekly, TimesPerWeek: 8}},
		{"自定义间隔为0", model.FrequencyRule{Type: model.FrequencyCustom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := calc.NextVisitDate(tt.rule, last); !apperrors.Is(err, apperrors.CodeInvalidInput) {
				t.Errorf("NextVisitDate() error = %v, expected INVALID_INPUT", err)
			}
			if _, err := calc.VisitsPerMonth(tt.rule); !apperrors.Is(err, apperrors.CodeInvalidInput) {
				t.Errorf("VisitsPerMonth() error = %v, expected INVALID_INPUT", err)
			}
		})
	}

	t.Run("缺少上次访视日期", func(t *testing.T) {
		_, err := calc.NextVisitDate(model.FrequencyRule{Type: model.FrequencyDaily}, time.Time{})
		if !apperrors.Is(err, apperrors.CodeInvalidInput) {
			t.Errorf("error = %v, expected INVALID_INPUT", err)
		}
	})
}
