// Package frequency 提供患者访视频率计算
package frequency

import (
	"fmt"
	"time"

	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/model"
)

// Calculator 访视频率计算器
type Calculator struct {
	// 各频率类型的每月访视次数基准
	monthlyVisits map[model.FrequencyType]float64
}

// NewCalculator 创建频率计算器
func NewCalculator() *Calculator {
	return &Calculator{
		monthlyVisits: map[model.FrequencyType]float64{
			model.FrequencyDaily:    30,
			model.FrequencyWeekly:   4.33, // 乘以每周次数
			model.FrequencyBiweekly: 2.17,
			model.FrequencyMonthly:  1,
		},
	}
}

// Validate 校验频率规则
func (c *Calculator) Validate(rule model.FrequencyRule) error {
	switch rule.Type {
	case model.FrequencyDaily, model.FrequencyBiweekly, model.FrequencyMonthly:
		return nil
	case model.FrequencyWeekly:
		if rule.TimesPerWeek < 1 || rule.TimesPerWeek > 7 {
			return apperrors.InvalidInput("times_per_week", fmt.Sprintf("每周次数必须在1-7之间，实际 %d", rule.TimesPerWeek))
		}
		return nil
	case model.FrequencyCustom:
		if rule.IntervalDays < 1 {
			return apperrors.InvalidInput("interval_days", fmt.Sprintf("间隔天数必须大于0，实际 %d", rule.IntervalDays))
		}
		return nil
	case "":
		return apperrors.InvalidInput("frequency", "未设置访视频率")
	default:
		return apperrors.InvalidInput("frequency", fmt.Sprintf("未知的频率类型 %s", rule.Type))
	}
}

// IntervalDays 返回两次访视的间隔天数；MONTHLY 按日历月计算，此处返回30
func (c *Calculator) IntervalDays(rule model.FrequencyRule) (int, error) {
	if err := c.Validate(rule); err != nil {
		return 0, err
	}
	switch rule.Type {
	case model.FrequencyDaily:
		return 1, nil
	case model.FrequencyWeekly:
		return max(1, 7/rule.TimesPerWeek), nil
	case model.FrequencyBiweekly:
		return 14, nil
	case model.FrequencyMonthly:
		return 30, nil
	default:
		return rule.IntervalDays, nil
	}
}

// NextVisitDate 根据上次访视日期计算下次建议访视日期
func (c *Calculator) NextVisitDate(rule model.FrequencyRule, lastVisit time.Time) (time.Time, error) {
	if lastVisit.IsZero() {
		return time.Time{}, apperrors.InvalidInput("last_visit_date", "缺少上次访视日期")
	}
	if rule.Type == model.FrequencyMonthly {
		if err := c.Validate(rule); err != nil {
			return time.Time{}, err
		}
		return lastVisit.AddDate(0, 1, 0), nil
	}

	days, err := c.IntervalDays(rule)
	if err != nil {
		return time.Time{}, err
	}
	return lastVisit.AddDate(0, 0, days), nil
}

// VisitsPerMonth 估算每月访视次数
func (c *Calculator) VisitsPerMonth(rule model.FrequencyRule) (float64, error) {
	if err := c.Validate(rule); err != nil {
		return 0, err
	}
	switch rule.Type {
	case model.FrequencyWeekly:
		return c.monthlyVisits[model.FrequencyWeekly] * float64(rule.TimesPerWeek), nil
	case model.FrequencyCustom:
		return 30 / float64(rule.IntervalDays), nil
	default:
		return c.monthlyVisits[rule.Type], nil
	}
}
