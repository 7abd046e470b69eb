package planning

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/paiban/homevisit/pkg/model"
)

// 优先级评分参数
const (
	baseScore          = 50.0
	overduePerDay      = 2.0
	maxOverdueBonus    = 30.0
	highFrequencyBonus = 10.0
	highFrequencyLimit = 8.0 // 每月访视次数
	urgencyBonus       = 20.0
	preferenceBaseline = 5.0
)

// PriorityScorer 患者优先级评分器
type PriorityScorer struct {
	frequency FrequencyCalculator
	keywords  []string
}

// NewPriorityScorer 创建优先级评分器
func NewPriorityScorer(frequency FrequencyCalculator, keywords []string) *PriorityScorer {
	lower := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			lower = append(lower, strings.ToLower(k))
		}
	}
	return &PriorityScorer{frequency: frequency, keywords: lower}
}

// Score 计算单个患者的优先级（0-100），相同输入和 now 得到相同结果
func (s *PriorityScorer) Score(p *model.Patient, now time.Time) model.VisitPriority {
	next := s.nextRecommended(p, now)

	factors := model.PriorityFactors{
		PatientPreference: preferenceBaseline,
	}
	score := baseScore

	// 逾期天数：优先以已排定日期为准，没有时取建议日期
	var reference *time.Time
	if p.NextScheduledVisitDate != nil {
		reference = p.NextScheduledVisitDate
	} else if p.LastVisitDate != nil {
		reference = &next
	}
	if reference != nil {
		if days := daysBetween(*reference, now); days > 0 {
			factors.OverdueDays = days
			score += math.Min(maxOverdueBonus, float64(days)*overduePerDay)
		}
	}

	if s.frequency != nil {
		if perMonth, err := s.frequency.VisitsPerMonth(p.Frequency); err == nil {
			factors.FrequencyPerMonth = perMonth
			if perMonth > highFrequencyLimit {
				score += highFrequencyBonus
			}
		}
	}

	if s.hasUrgency(p.Diagnosis) {
		factors.MedicalUrgency = true
		score += urgencyBonus
	}

	score += factors.PatientPreference

	return model.VisitPriority{
		PatientID:           p.ID,
		Patient:             p,
		PriorityScore:       math.Max(0, math.Min(100, score)),
		Factors:             factors,
		LastVisitDate:       p.LastVisitDate,
		NextRecommendedDate: next,
	}
}

// ScoreAll 为全部患者评分并按分数降序稳定排序
func (s *PriorityScorer) ScoreAll(patients []*model.Patient, now time.Time) []model.VisitPriority {
	priorities := make([]model.VisitPriority, len(patients))
	for i, p := range patients {
		priorities[i] = s.Score(p, now)
	}
	sort.SliceStable(priorities, func(i, j int) bool {
		return priorities[i].PriorityScore > priorities[j].PriorityScore
	})
	return priorities
}

// nextRecommended 由频率计算下次建议访视日期，无法计算时为 now
func (s *PriorityScorer) nextRecommended(p *model.Patient, now time.Time) time.Time {
	if s.frequency == nil || p.LastVisitDate == nil {
		return now
	}
	next, err := s.frequency.NextVisitDate(p.Frequency, *p.LastVisitDate)
	if err != nil {
		return now
	}
	return next
}

func (s *PriorityScorer) hasUrgency(diagnosis string) bool {
	if diagnosis == "" {
		return false
	}
	text := strings.ToLower(diagnosis)
	for _, k := range s.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// daysBetween 按自然日计算 to - from
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// FilterByClass 按优先级类别过滤，返回保留的和被过滤的
func FilterByClass(priorities []model.VisitPriority, class model.PriorityClass) (kept, filtered []model.VisitPriority) {
	if class == "" || class == model.PriorityAll {
		return priorities, nil
	}
	for _, vp := range priorities {
		if class.Matches(vp.PriorityScore) {
			kept = append(kept, vp)
		} else {
			filtered = append(filtered, vp)
		}
	}
	return kept, filtered
}
