package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestVisit_ApplyConfirmation(t *testing.T) {
	tests := []struct {
		status     ConfirmationStatus
		wantStatus VisitStatus
	}{
		{ConfirmationConfirmed, VisitConfirmed},
		{ConfirmationRejected, VisitCancelled},
		{ConfirmationPending, VisitScheduled},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			v := &Visit{Status: VisitScheduled}
			v.ApplyConfirmation(tt.status)
			if v.Status != tt.wantStatus || v.Confirmation != tt.status {
				t.Errorf("Status = %s, Confirmation = %s", v.Status, v.Confirmation)
			}
		})
	}
}

func TestVisit_TimeRange(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 45, 0, 0, time.UTC)
	v := &Visit{ScheduledTime: start, EstimatedDurationMinutes: 30}

	if !v.EndTime().Equal(start.Add(30 * time.Minute)) {
		t.Errorf("EndTime() = %v", v.EndTime())
	}
	if v.TimeRange().Duration() != 30*time.Minute {
		t.Errorf("Duration = %v", v.TimeRange().Duration())
	}
}

func TestProfessional_CoversZone(t *testing.T) {
	anywhere := &Professional{}
	north := &Professional{PreferredZones: []string{"norte", "centro"}}

	if !anywhere.CoversZone("sur") {
		t.Error("没有偏好区域时应覆盖所有区域")
	}
	if !north.CoversZone("centro") || north.CoversZone("sur") {
		t.Error("偏好区域判断错误")
	}
}

func TestSchedulingWindow_Slots(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	w := &SchedulingWindow{StartTime: start, AvailableSlots: 4, SlotMinutes: 45}

	if w.LoadRatio() != 0 || !w.HasCapacity() {
		t.Fatal("空窗口应有容量")
	}
	w.BookedSlots = 2
	if !w.NextSlotTime().Equal(start.Add(90 * time.Minute)) {
		t.Errorf("NextSlotTime() = %v", w.NextSlotTime())
	}
	w.BookedSlots = 4
	if w.HasCapacity() || w.LoadRatio() != 1 {
		t.Error("满额窗口不应有容量")
	}
	if (&SchedulingWindow{}).LoadRatio() != 1 {
		t.Error("零容量窗口的负载比例应为 1")
	}
}

func TestPriorityClass_Matches(t *testing.T) {
	tests := []struct {
		class    PriorityClass
		score    float64
		expected bool
	}{
		{PriorityHigh, 75, true},
		{PriorityHigh, 74.9, false},
		{PriorityMedium, 50, true},
		{PriorityMedium, 75, false},
		{PriorityLow, 49.9, true},
		{PriorityAll, 0, true},
	}

	for _, tt := range tests {
		if got := tt.class.Matches(tt.score); got != tt.expected {
			t.Errorf("%s.Matches(%v) = %v, expected %v", tt.class, tt.score, got, tt.expected)
		}
	}
}

func TestJourneyKey(t *testing.T) {
	id := uuid.MustParse("1b6c9a52-7e0f-4f0b-8a3d-5d0e6c2b9f10")
	j := &Journey{ProfessionalID: id, Date: "2026-03-02"}
	if j.Key() != JourneyKey(id, "2026-03-02") {
		t.Errorf("Key() = %s", j.Key())
	}
}
