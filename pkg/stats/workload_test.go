package stats

import (
	"math"
	"testing"

	"github.com/paiban/homevisit/pkg/model"
)

func newProfessional(name string) *model.Professional {
	return &model.Professional{BaseModel: model.NewBaseModel(), Name: name, Status: "active"}
}

func journeyWith(p *model.Professional, visits int) *model.Journey {
	j := &model.Journey{BaseModel: model.NewBaseModel(), ProfessionalID: p.ID, Status: model.JourneyPlanned}
	for i := 0; i < visits; i++ {
		j.Visits = append(j.Visits, &model.Visit{BaseModel: model.NewBaseModel()})
	}
	return j
}

func TestGini(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"空", nil, 0},
		{"全为0", []float64{0, 0, 0}, 0},
		{"完全均衡", []float64{5, 5, 5, 5}, 0},
		{"完全集中", []float64{0, 0, 0, 8}, 0.75},
		{"两人一多一少", []float64{1, 3}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Gini(tt.values); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Gini() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestWorkloadAnalyzer_Analyze(t *testing.T) {
	analyzer := NewWorkloadAnalyzer()
	p1 := newProfessional("专业人员1")
	p2 := newProfessional("专业人员2")
	p3 := newProfessional("专业人员3")

	journeys := []*model.Journey{
		journeyWith(p1, 4),
		journeyWith(p1, 2),
		journeyWith(p2, 6),
	}
	cancelled := journeyWith(p3, 5)
	cancelled.Status = model.JourneyCancelled
	journeys = append(journeys, cancelled)

	metrics := analyzer.Analyze(journeys, []*model.Professional{p1, p2, p3})

	if metrics.AvgVisitsPerProfessional != 4 {
		t.Errorf("AvgVisitsPerProfessional = %v, expected 4", metrics.AvgVisitsPerProfessional)
	}
	if metrics.MaxVisits != 6 || metrics.MinVisits != 0 {
		t.Errorf("range = [%v, %v], expected [0, 6]", metrics.MinVisits, metrics.MaxVisits)
	}
	if metrics.ProfessionalStats[0].Journeys != 2 {
		t.Errorf("专业人员1行程数 = %d, expected 2", metrics.ProfessionalStats[0].Journeys)
	}
	if metrics.ProfessionalStats[2].Visits != 0 {
		t.Error("已取消行程不应计入")
	}
	if metrics.WorkloadGini <= 0 || metrics.WorkloadGini > 1 {
		t.Errorf("WorkloadGini = %v, expected (0,1]", metrics.WorkloadGini)
	}
	if metrics.OverallBalanceScore >= 100 {
		t.Errorf("不均衡分布的评分应低于100, got %v", metrics.OverallBalanceScore)
	}
}

func TestWorkloadAnalyzer_Empty(t *testing.T) {
	metrics := NewWorkloadAnalyzer().Analyze(nil, nil)
	if metrics.OverallBalanceScore != 100 {
		t.Errorf("OverallBalanceScore = %v, expected 100", metrics.OverallBalanceScore)
	}
}
