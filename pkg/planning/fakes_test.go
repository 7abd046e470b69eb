package planning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/homevisit/pkg/frequency"
	"github.com/paiban/homevisit/pkg/model"
)

// fakeStore 测试用的内存仓储
type fakeStore struct {
	patients      []*model.Patient
	professionals []*model.Professional
	busy          map[string]bool // professionalID|date
	patientErr    error
	journeyErr    error
}

func (s *fakeStore) FindEligible(_ context.Context, _ model.PatientFilter) ([]*model.Patient, error) {
	if s.patientErr != nil {
		return nil, s.patientErr
	}
	return s.patients, nil
}

func (s *fakeStore) FindActive(_ context.Context, _ model.ProfessionalFilter) ([]*model.Professional, error) {
	return s.professionals, nil
}

func (s *fakeStore) ExistsForProfessionalOnDate(_ context.Context, id uuid.UUID, date string) (bool, error) {
	if s.journeyErr != nil {
		return false, s.journeyErr
	}
	return s.busy[model.JourneyKey(id, date)], nil
}

var errStore = errors.New("连接已断开")

// 2026-03-02 是周一
var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newPatient(name string, lat, lng float64) *model.Patient {
	return &model.Patient{
		BaseModel:  model.NewBaseModel(),
		Name:       name,
		Address:    name + " 地址",
		Status:     "active",
		Coordinate: &model.Coordinate{Lat: lat, Lng: lng},
		Frequency:  model.FrequencyRule{Type: model.FrequencyWeekly, TimesPerWeek: 1},
	}
}

func newProfessional(name string, maxVisits int) *model.Professional {
	return &model.Professional{
		BaseModel:       model.NewBaseModel(),
		Name:            name,
		Status:          "active",
		MaxVisitsPerDay: maxVisits,
	}
}

func newTestPlanner(store *fakeStore, geocoder Geocoder) *Planner {
	settings := DefaultSettings()
	settings.RandomSeed = 42
	settings.Workers = 2
	return NewPlanner(Dependencies{
		Patients:      store,
		Professionals: store,
		Journeys:      store,
		Frequency:     frequency.NewCalculator(),
		Geocoder:      geocoder,
		Now:           func() time.Time { return testNow },
	}, settings)
}

func oneDayRequest() model.PlanningRequest {
	return model.PlanningRequest{
		DateRange: model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-02"},
	}
}
