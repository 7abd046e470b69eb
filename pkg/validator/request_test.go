package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/model"
)

func TestRequestValidator_PlanningRequest(t *testing.T) {
	v := NewRequestValidator()
	valid := func() model.PlanningRequest {
		return model.PlanningRequest{DateRange: model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-06"}}
	}

	tests := []struct {
		name      string
		modify    func(*model.PlanningRequest)
		wantField string
	}{
		{"合法请求", func(*model.PlanningRequest) {}, ""},
		{"缺少开始日期", func(r *model.PlanningRequest) { r.StartDate = "" }, "StartDate"},
		{"日期格式错误", func(r *model.PlanningRequest) { r.EndDate = "06/03/2026" }, "EndDate"},
		{"未知策略", func(r *model.PlanningRequest) { r.Strategy = "RANDOM" }, "Strategy"},
		{"未知优先级", func(r *model.PlanningRequest) { r.PriorityClass = "URGENT" }, "PriorityClass"},
		{"每日上限过大", func(r *model.PlanningRequest) { r.MaxVisitsPerDay = 30 }, "MaxVisitsPerDay"},
		{"工作时间格式错误", func(r *model.PlanningRequest) { r.WorkStart = "8am" }, "WorkStart"},
		{"未知出行方式", func(r *model.PlanningRequest) { r.TravelMode = "FLYING" }, "TravelMode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.modify(&req)
			err := v.PlanningRequest(req)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if !apperrors.Is(err, apperrors.CodeValidationFail) {
				t.Fatalf("期望 VALIDATION_FAILED, got %v", err)
			}
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				t.Fatal("应返回 AppError")
			}
			found := false
			for field := range appErr.Fields {
				if strings.HasSuffix(field, tt.wantField) {
					found = true
				}
			}
			if !found {
				t.Errorf("Fields = %v, 缺少 %s", appErr.Fields, tt.wantField)
			}
		})
	}
}

func TestRequestValidator_RouteRequest(t *testing.T) {
	v := NewRequestValidator()

	ok := model.RouteRequest{Waypoints: []model.Waypoint{{VisitID: uuid.New(), Coordinate: model.Coordinate{Lat: 4.6, Lng: -74.1}}}}
	if err := v.RouteRequest(ok); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if err := v.RouteRequest(model.RouteRequest{}); err != nil {
		t.Errorf("空途经点由优化器处理, got %v", err)
	}

	bad := model.RouteRequest{Waypoints: []model.Waypoint{{VisitID: uuid.New(), Coordinate: model.Coordinate{Lat: 95, Lng: -74.1}}}}
	if err := v.RouteRequest(bad); !apperrors.Is(err, apperrors.CodeValidationFail) {
		t.Errorf("纬度越界应校验失败, got %v", err)
	}

	missing := model.RouteRequest{Waypoints: []model.Waypoint{{Coordinate: model.Coordinate{Lat: 4.6, Lng: -74.1}}}}
	if err := v.RouteRequest(missing); err == nil {
		t.Error("缺少访视ID应校验失败")
	}
}
