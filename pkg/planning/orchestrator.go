package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/logger"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/routing"
	"github.com/paiban/homevisit/pkg/stats"
)

// Stage 排程阶段
type Stage string

const (
	StageCollectPatients Stage = "COLLECT_PATIENTS"
	StageScore           Stage = "SCORE"
	StageResolveCapacity Stage = "RESOLVE_CAPACITY"
	StageBuildWindows    Stage = "BUILD_WINDOWS"
	StageAssign          Stage = "ASSIGN"
	StageOptimizeRoutes  Stage = "OPTIMIZE_ROUTES"
	StageValidate        Stage = "VALIDATE"
	StageReport          Stage = "REPORT"
)

// FailedError 排程中止错误，携带中止阶段和已收集的部分结果
type FailedError struct {
	Stage   Stage
	Partial *model.PlanningResult
	Err     error
}

// Error 实现 error 接口
func (e *FailedError) Error() string {
	return e.Err.Error()
}

// Unwrap 返回 PLANNING_FAILED 应用错误
func (e *FailedError) Unwrap() error {
	return e.Err
}

func newFailedError(stage Stage, partial *model.PlanningResult, cause error) *FailedError {
	return &FailedError{
		Stage:   stage,
		Partial: partial,
		Err:     apperrors.PlanningFailed(string(stage), cause),
	}
}

// Dependencies 排程引擎的外部协作者
type Dependencies struct {
	Patients      PatientRepository
	Professionals ProfessionalRepository
	Journeys      JourneyRepository
	Frequency     FrequencyCalculator
	Validator     EntityValidator // 可为空
	Geocoder      Geocoder        // 可为空，患者无坐标时访视被排除出路线
	Recorder      Recorder        // 可为空
	Logger        *logger.PlannerLogger
	Now           func() time.Time
}

// Planner 访视排程编排器，每个实例持有自己的状态
type Planner struct {
	deps      Dependencies
	settings  Settings
	scorer    *PriorityScorer
	capacity  *CapacityResolver
	windows   *WindowBuilder
	assigner  *AssignmentEngine
	optimizer *routing.Optimizer
	pool      *RoutePool
	logger    *logger.PlannerLogger
	recorder  Recorder
	now       func() time.Time
}

// NewPlanner 创建排程编排器
func NewPlanner(deps Dependencies, settings Settings) *Planner {
	log := deps.Logger
	if log == nil {
		log = logger.NewPlannerLogger()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if settings.DefaultTravelMode == "" {
		settings.DefaultTravelMode = model.TravelDriving
	}

	optimizer := routing.NewOptimizer()
	return &Planner{
		deps:      deps,
		settings:  settings,
		scorer:    NewPriorityScorer(deps.Frequency, settings.UrgencyKeywords),
		capacity:  NewCapacityResolver(deps.Journeys, settings.DefaultMaxVisitsPerDay),
		windows:   NewWindowBuilder(settings.SlotMinutes(), settings.location()),
		assigner:  NewAssignmentEngine(settings.VisitDurationMinutes, log),
		optimizer: optimizer,
		pool:      NewRoutePool(settings.workers(), optimizer),
		logger:    log,
		recorder:  recorder,
		now:       now,
	}
}

// planRun 单次排程运行的私有状态
type planRun struct {
	req           model.PlanningRequest
	result        *model.PlanningResult
	strategy      model.PlanningStrategy
	travelMode    model.TravelMode
	startDate     time.Time
	endDate       time.Time
	workStart     clock
	workEnd       clock
	patients      []*model.Patient
	eligible      []model.VisitPriority
	filteredOut   int
	professionals []*model.Professional
	capacities    []model.ProfessionalCapacity
	windows       []*model.SchedulingWindow
	assignment    *Assignment
}

// GenerateVisitPlan 生成访视计划
// 返回的结果只是草稿，是否持久化由调用方决定
func (p *Planner) GenerateVisitPlan(ctx context.Context, req model.PlanningRequest) (*model.PlanningResult, error) {
	started := time.Now()

	run, err := p.newRun(req)
	if err != nil {
		return nil, err
	}
	planningID := run.result.PlanningID.String()
	p.logger.StartPlanning(planningID, req.StartDate, req.EndDate, string(run.strategy))

	stages := []struct {
		stage Stage
		fn    func(context.Context, *planRun) error
	}{
		{StageCollectPatients, p.collectPatients},
		{StageScore, p.score},
		{StageResolveCapacity, p.resolveCapacity},
		{StageBuildWindows, p.buildWindows},
		{StageAssign, p.assign},
	}
	for _, s := range stages {
		if err := p.runStage(ctx, planningID, s.stage, run, s.fn); err != nil {
			return nil, p.fail(planningID, s.stage, run, started, err)
		}
	}

	// 以下阶段不因上下文结束而中止，只有 panic 会中止
	tail := []struct {
		stage Stage
		fn    func()
	}{
		{StageOptimizeRoutes, func() { p.optimizeRoutes(ctx, run) }},
		{StageValidate, func() { p.validate(run) }},
		{StageReport, func() { p.report(run) }},
	}
	if !req.OptimizeRoutes {
		tail = tail[1:]
	}
	for _, s := range tail {
		if err := p.timed(planningID, s.stage, s.fn); err != nil {
			return nil, p.fail(planningID, s.stage, run, started, err)
		}
	}

	run.result.ProcessingTimeMs = time.Since(started).Milliseconds()
	p.logger.PlanningComplete(planningID, time.Since(started), len(run.result.ScheduledVisits), len(run.result.UnscheduledPatients))
	p.recorder.RecordPlanning(string(run.strategy), "success", time.Since(started), len(run.result.UnscheduledPatients))

	return run.result, nil
}

// OptimizeRoute 对单个行程的途经点排序
func (p *Planner) OptimizeRoute(waypoints []model.Waypoint, opts routing.Options) (*model.OptimizedRoute, error) {
	if opts.TravelMode == "" {
		opts.TravelMode = p.settings.DefaultTravelMode
	}
	start := time.Now()
	route, err := p.optimizer.Optimize(waypoints, opts)
	if err != nil {
		return nil, err
	}
	p.recorder.RecordRouteOptimization(string(route.Method), time.Since(start))
	return route, nil
}

func (p *Planner) newRun(req model.PlanningRequest) (*planRun, error) {
	startDate, endDate, err := req.DateRange.Parse(p.settings.location())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "日期范围无效")
	}
	workStart, workEnd, err := p.settings.workHours(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "工作时段无效")
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = model.StrategyPriorityFirst
	}
	mode := req.TravelMode
	if mode == "" {
		mode = p.settings.DefaultTravelMode
	}

	return &planRun{
		req:        req,
		strategy:   strategy,
		travelMode: mode,
		startDate:  startDate,
		endDate:    endDate,
		workStart:  workStart,
		workEnd:    workEnd,
		result: &model.PlanningResult{
			PlanningID:          uuid.New(),
			GeneratedJourneys:   make([]*model.Journey, 0),
			ScheduledVisits:     make([]*model.Visit, 0),
			UnscheduledPatients: make([]model.UnscheduledPatient, 0),
			Conflicts:           make([]model.PlanningConflict, 0),
			Routes:              make(map[string]*model.OptimizedRoute),
			ValidationResults:   make(map[string]model.ValidationResult),
			Recommendations:     make([]string, 0),
			ExecutedAt:          p.now(),
		},
	}, nil
}

// runStage 在阶段开始前检查上下文，阶段内 panic 转为错误
func (p *Planner) runStage(ctx context.Context, planningID string, stage Stage, run *planRun, fn func(context.Context, *planRun) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	if err := recoverStage(stage, func() error { return fn(ctx, run) }); err != nil {
		return err
	}
	p.logger.StageComplete(planningID, string(stage), time.Since(start))
	return nil
}

// timed 执行不返回错误的阶段，panic 转为错误
func (p *Planner) timed(planningID string, stage Stage, fn func()) error {
	start := time.Now()
	err := recoverStage(stage, func() error {
		fn()
		return nil
	})
	if err != nil {
		return err
	}
	p.logger.StageComplete(planningID, string(stage), time.Since(start))
	return nil
}

func recoverStage(stage Stage, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("阶段 %s 内部错误: %v", stage, r)
		}
	}()
	return fn()
}

func (p *Planner) fail(planningID string, stage Stage, run *planRun, started time.Time, err error) *FailedError {
	run.result.ProcessingTimeMs = time.Since(started).Milliseconds()
	p.logger.PlanningFailed(planningID, string(stage), err)
	p.recorder.RecordPlanning(string(run.strategy), "failed", time.Since(started), len(run.result.UnscheduledPatients))
	return newFailedError(stage, run.result, err)
}

func (p *Planner) collectPatients(ctx context.Context, run *planRun) error {
	patients, err := p.deps.Patients.FindEligible(ctx, model.PatientFilter{
		ZoneIDs:    run.req.ZoneIDs,
		PatientIDs: run.req.PatientIDs,
	})
	if err != nil {
		return fmt.Errorf("查询待排程患者失败: %w", err)
	}
	run.patients = patients
	return nil
}

func (p *Planner) score(_ context.Context, run *planRun) error {
	priorities := p.scorer.ScoreAll(run.patients, run.result.ExecutedAt)
	kept, filtered := FilterByClass(priorities, run.req.PriorityClass)
	run.eligible = kept
	run.filteredOut = len(filtered)

	if len(kept) == 0 {
		run.result.Warnings = append(run.result.Warnings, apperrors.EmptyInput("患者").Message)
	}
	return nil
}

func (p *Planner) resolveCapacity(ctx context.Context, run *planRun) error {
	if len(run.eligible) == 0 {
		return nil
	}

	professionals, err := p.deps.Professionals.FindActive(ctx, model.ProfessionalFilter{
		ZoneIDs:         run.req.ZoneIDs,
		ProfessionalIDs: run.req.ProfessionalIDs,
	})
	if err != nil {
		return fmt.Errorf("查询在岗专业人员失败: %w", err)
	}
	run.professionals = professionals

	dates := PlanDates(run.startDate, run.endDate, run.req.AllowWeekends)
	run.capacities, err = p.capacity.Resolve(ctx, professionals, dates, run.req.MaxVisitsPerDay)
	return err
}

func (p *Planner) buildWindows(_ context.Context, run *planRun) error {
	if len(run.eligible) == 0 {
		return nil
	}

	run.windows = p.windows.Build(run.capacities, run.workStart, run.workEnd)
	if len(run.windows) == 0 {
		affected := run.req.ZoneIDs
		if len(affected) == 0 {
			affected = []string{"ALL"}
		}
		run.result.Conflicts = append(run.result.Conflicts, model.PlanningConflict{
			Type:                model.ConflictZoneOverload,
			Severity:            model.SeverityHigh,
			Description:         fmt.Sprintf("%s 至 %s 没有任何可用的专业人员窗口", run.req.StartDate, run.req.EndDate),
			AffectedEntities:    affected,
			SuggestedResolution: "增加专业人员、允许周末或调整日期范围",
		})
	}
	return nil
}

func (p *Planner) assign(_ context.Context, run *planRun) error {
	professionals := make(map[uuid.UUID]*model.Professional, len(run.professionals))
	for _, pr := range run.professionals {
		professionals[pr.ID] = pr
	}

	a := p.assigner.Assign(run.eligible, run.windows, professionals, run.strategy)
	run.assignment = a
	run.result.GeneratedJourneys = a.Journeys
	run.result.ScheduledVisits = a.Visits
	run.result.UnscheduledPatients = a.Unscheduled
	run.result.Conflicts = append(run.result.Conflicts, a.Conflicts...)
	return nil
}

// optimizeRoutes 并行优化每个行程；上下文结束后未开始的行程保持原顺序
func (p *Planner) optimizeRoutes(ctx context.Context, run *planRun) {
	if run.assignment == nil || len(run.result.GeneratedJourneys) == 0 {
		return
	}

	patients := make(map[uuid.UUID]*model.Patient, len(run.patients))
	for _, pt := range run.patients {
		patients[pt.ID] = pt
	}
	journeys := make(map[uuid.UUID]*model.Journey, len(run.result.GeneratedJourneys))

	jobs := make([]routeJob, 0, len(run.result.GeneratedJourneys))
	for i, j := range run.result.GeneratedJourneys {
		journeys[j.ID] = j

		stops := make([]routing.Stop, 0, len(j.Visits))
		for _, v := range j.Visits {
			stops = append(stops, routing.Stop{Visit: v, Patient: patients[v.PatientID]})
		}

		waypoints, excluded := routing.BuildWaypoints(ctx, p.deps.Geocoder, stops)
		for _, ex := range excluded {
			p.addConflict(run, model.PlanningConflict{
				Type:                model.ConflictPatientConstraint,
				Severity:            model.SeverityLow,
				Description:         fmt.Sprintf("患者 %s 无法定位，未纳入路线: %v", ex.PatientID, ex.Err),
				AffectedEntities:    []string{ex.PatientID.String(), ex.VisitID.String()},
				SuggestedResolution: "补充患者地址或坐标",
			}, ex.PatientID.String())
			run.result.Warnings = append(run.result.Warnings, fmt.Sprintf("访视 %s 已排除出路线: %v", ex.VisitID, ex.Err))
		}

		if len(waypoints) > routing.MaxWaypoints {
			p.addConflict(run, model.PlanningConflict{
				Type:                model.ConflictScheduling,
				Severity:            model.SeverityMedium,
				Description:         fmt.Sprintf("行程 %s 有 %d 个途经点，超过上限 %d", j.ID, len(waypoints), routing.MaxWaypoints),
				AffectedEntities:    []string{j.ID.String()},
				SuggestedResolution: "降低每日访视上限或拆分行程",
			}, "")
			continue
		}
		if len(waypoints) == 0 {
			continue
		}

		seed := p.settings.RandomSeed
		if seed != 0 {
			seed += int64(i)
		}
		jobs = append(jobs, routeJob{
			journeyID: j.ID,
			waypoints: waypoints,
			opts: routing.Options{
				JourneyID:          j.ID,
				RespectTimeWindows: true,
				TravelMode:         run.travelMode,
				EstimatedStart:     j.StartTime,
				Seed:               seed,
			},
		})
	}

	for _, r := range p.pool.OptimizeBatch(ctx, jobs) {
		if !r.done {
			run.result.Warnings = append(run.result.Warnings, fmt.Sprintf("已到达截止时间，行程 %s 未优化", r.journeyID))
			continue
		}
		if r.err != nil {
			run.result.Warnings = append(run.result.Warnings, fmt.Sprintf("行程 %s 路线优化失败: %v", r.journeyID, r.err))
			continue
		}

		j := journeys[r.journeyID]
		reslot(j, r.route, run.assignment.WindowFor(j.ID))
		j.Optimized = true
		j.TotalDistanceMeters = r.route.TotalDistanceMeters
		j.TotalDurationMinutes = r.route.TotalDurationMinutes
		run.result.Routes[j.ID.String()] = r.route
		p.recorder.RecordRouteOptimization(string(r.route.Method), r.duration)
	}
}

func (p *Planner) addConflict(run *planRun, c model.PlanningConflict, patientID string) {
	run.result.Conflicts = append(run.result.Conflicts, c)
	p.logger.Conflict(string(c.Type), patientID, c.Description)
}

// validate 校验结果仅作参考，不阻断报告
func (p *Planner) validate(run *planRun) {
	if p.deps.Validator == nil {
		return
	}
	for _, j := range run.result.GeneratedJourneys {
		run.result.ValidationResults[j.ID.String()] = p.deps.Validator.Validate(j)
		for _, v := range j.Visits {
			run.result.ValidationResults[v.ID.String()] = p.deps.Validator.Validate(v)
		}
	}
}

func (p *Planner) report(run *planRun) {
	summary := buildSummary(run.result, run.professionals, len(run.eligible), run.filteredOut)
	coverage := stats.NewCoverageAnalyzer().Analyze(run.windows, run.eligible, run.result.ScheduledVisits)
	summary.CapacityUtilization = coverage.Utilization
	run.result.OptimizationSummary = summary
	run.result.Recommendations = append(
		buildRecommendations(summary, run.result.Conflicts, run.req.OptimizeRoutes),
		coverageRecommendations(coverage, summary.UnscheduledPatients)...,
	)
}
