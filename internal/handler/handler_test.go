package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/paiban/homevisit/internal/repository"
	"github.com/paiban/homevisit/pkg/frequency"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/planning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newStore() *repository.MemoryStore {
	patient := func(name string, lat, lng float64) *model.Patient {
		return &model.Patient{
			BaseModel:  model.NewBaseModel(),
			Name:       name,
			Address:    name + " 地址",
			Status:     "active",
			Coordinate: &model.Coordinate{Lat: lat, Lng: lng},
			Frequency:  model.FrequencyRule{Type: model.FrequencyWeekly, TimesPerWeek: 1},
		}
	}
	return repository.NewMemoryStore(repository.Snapshot{
		Patients: []*model.Patient{
			patient("甲", 4.60, -74.08),
			patient("乙", 4.65, -74.05),
		},
		Professionals: []*model.Professional{{
			BaseModel:       model.NewBaseModel(),
			Name:            "护士",
			Status:          "active",
			MaxVisitsPerDay: 6,
		}},
	})
}

func newPlanner(patients planning.PatientRepository, store *repository.MemoryStore) *planning.Planner {
	settings := planning.DefaultSettings()
	settings.RandomSeed = 7
	return planning.NewPlanner(planning.Dependencies{
		Patients:      patients,
		Professionals: store,
		Journeys:      store,
		Frequency:     frequency.NewCalculator(),
		Now:           func() time.Time { return fixedNow },
	}, settings)
}

func newTestServer(h *Handler) *echo.Echo {
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const planBody = `{"start_date":"2026-03-02","end_date":"2026-03-02","optimize_routes":true}`

func TestGeneratePlan(t *testing.T) {
	store := newStore()
	e := newTestServer(NewHandler(newPlanner(store, store), Options{Saver: store}))

	rec := do(e, http.MethodPost, "/api/v1/planning/generate", planBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, false, body["committed"])
	assert.Len(t, body["scheduled_visits"], 2)
	assert.Len(t, body["generated_journeys"], 1)
	assert.Empty(t, store.Journeys(), "未提交时不应持久化")
}

func TestGeneratePlan_Commit(t *testing.T) {
	store := newStore()
	e := newTestServer(NewHandler(newPlanner(store, store), Options{Saver: store}))

	rec := do(e, http.MethodPost, "/api/v1/planning/generate?commit=true", planBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["committed"])
	require.Len(t, store.Journeys(), 1)

	// 唯一的专业人员当天已有行程
	rec = do(e, http.MethodPost, "/api/v1/planning/generate", planBody)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Empty(t, body["scheduled_visits"])
	assert.Len(t, body["unscheduled_patients"], 2)
}

func TestGeneratePlan_BadRequests(t *testing.T) {
	store := newStore()
	withSaver := newTestServer(NewHandler(newPlanner(store, store), Options{Saver: store}))
	noSaver := newTestServer(NewHandler(newPlanner(store, store), Options{}))

	tests := []struct {
		name     string
		server   *echo.Echo
		target   string
		body     string
		wantCode string
	}{
		{"非法JSON", withSaver, "/api/v1/planning/generate", "{", "INVALID_INPUT"},
		{"缺少开始日期", withSaver, "/api/v1/planning/generate", `{"end_date":"2026-03-02"}`, "VALIDATION_FAILED"},
		{"未知策略", withSaver, "/api/v1/planning/generate", `{"start_date":"2026-03-02","end_date":"2026-03-02","strategy":"RANDOM"}`, "VALIDATION_FAILED"},
		{"结束早于开始", withSaver, "/api/v1/planning/generate", `{"start_date":"2026-03-05","end_date":"2026-03-02"}`, "INVALID_INPUT"},
		{"日期跨度过大", withSaver, "/api/v1/planning/generate", `{"start_date":"2026-01-01","end_date":"2526-01-01"}`, "INVALID_INPUT"},
		{"commit不是布尔值", withSaver, "/api/v1/planning/generate?commit=maybe", planBody, "INVALID_INPUT"},
		{"未配置持久化", noSaver, "/api/v1/planning/generate?commit=true", planBody, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(tt.server, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, true, body["error"])
		})
	}
}

type failingPatients struct{}

func (failingPatients) FindEligible(context.Context, model.PatientFilter) ([]*model.Patient, error) {
	return nil, errors.New("连接已断开")
}

func TestGeneratePlan_StageFailure(t *testing.T) {
	store := newStore()
	e := newTestServer(NewHandler(newPlanner(failingPatients{}, store), Options{}))

	rec := do(e, http.MethodPost, "/api/v1/planning/generate", planBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "PLANNING_FAILED", body["code"])
	assert.Equal(t, "COLLECT_PATIENTS", body["stage"])
	assert.NotNil(t, body["partial_result"])
}

// slowPatients 阻塞到请求上下文结束
type slowPatients struct{}

func (slowPatients) FindEligible(ctx context.Context, _ model.PatientFilter) ([]*model.Patient, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGeneratePlan_Timeout(t *testing.T) {
	store := newStore()
	e := newTestServer(NewHandler(newPlanner(slowPatients{}, store), Options{Timeout: 20 * time.Millisecond}))

	rec := do(e, http.MethodPost, "/api/v1/planning/generate", planBody)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "TIMEOUT", body["code"])
	assert.Equal(t, "COLLECT_PATIENTS", body["stage"])
	assert.NotNil(t, body["partial_result"])
}

func waypointsJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"visit_id":%q,"coordinate":{"lat":%.3f,"lng":-74.08}}`, uuid.New().String(), 4.6+float64(i)*0.01)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestOptimizeRoute(t *testing.T) {
	store := newStore()
	e := newTestServer(NewHandler(newPlanner(store, store), Options{}))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMethod string
		wantCode   string
	}{
		{"三个途经点", `{"seed":1,"waypoints":` + waypointsJSON(3) + `}`, http.StatusOK, "EXHAUSTIVE", ""},
		{"空途经点", `{"waypoints":[]}`, http.StatusOK, "NONE", ""},
		{"八个途经点", `{"seed":1,"waypoints":` + waypointsJSON(8) + `}`, http.StatusOK, "LOCAL_SEARCH", ""},
		{"超过上限", `{"waypoints":` + waypointsJSON(26) + `}`, http.StatusUnprocessableEntity, "", "TOO_MANY_WAYPOINTS"},
		{"纬度越界", `{"waypoints":[{"visit_id":"` + uuid.New().String() + `","coordinate":{"lat":95,"lng":0}}]}`, http.StatusBadRequest, "", "VALIDATION_FAILED"},
		{"缺少访视ID", `{"waypoints":[{"coordinate":{"lat":4.6,"lng":-74}}]}`, http.StatusBadRequest, "", "VALIDATION_FAILED"},
		{"未知出行方式", `{"travel_mode":"FLYING","waypoints":[]}`, http.StatusBadRequest, "", "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/v1/routes/optimize", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decode(t, rec)
			if tt.wantMethod != "" {
				assert.Equal(t, tt.wantMethod, body["method"])
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
			}
		})
	}
}

func TestValidateRoute(t *testing.T) {
	store := newStore()
	e := newTestServer(NewHandler(newPlanner(store, store), Options{}))

	rec := do(e, http.MethodPost, "/api/v1/routes/validate",
		`{"waypoints":[],"total_distance_meters":250000,"total_duration_minutes":300,"optimization_score":90}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Len(t, body["errors"], 1)

	rec = do(e, http.MethodPost, "/api/v1/routes/validate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMPTY_INPUT", decode(t, rec)["code"])
}

type healthFunc func(context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	store := newStore()
	planner := newPlanner(store, store)

	rec := do(newTestServer(NewHandler(planner, Options{})), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	down := healthFunc(func(context.Context) error { return errors.New("数据库不可达") })
	rec = do(newTestServer(NewHandler(planner, Options{Health: down})), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode(t, rec)["status"])
}
