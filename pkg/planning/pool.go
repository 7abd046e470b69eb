package planning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/routing"
)

// routeJob 单个行程的路线优化任务
type routeJob struct {
	journeyID uuid.UUID
	waypoints []model.Waypoint
	opts      routing.Options
}

// routeResult 路线优化结果；done 为 false 表示因上下文结束未执行
type routeResult struct {
	journeyID uuid.UUID
	route     *model.OptimizedRoute
	err       error
	duration  time.Duration
	done      bool
}

// RoutePool 按行程并行执行路线优化
type RoutePool struct {
	workers   int
	optimizer *routing.Optimizer
}

// NewRoutePool 创建路线优化工作池
func NewRoutePool(workers int, optimizer *routing.Optimizer) *RoutePool {
	if workers <= 0 {
		workers = 4
	}
	if optimizer == nil {
		optimizer = routing.NewOptimizer()
	}
	return &RoutePool{workers: workers, optimizer: optimizer}
}

// OptimizeBatch 并行优化一批行程，结果按输入顺序返回
// 上下文结束后不再启动新任务，已完成的结果保留
func (p *RoutePool) OptimizeBatch(ctx context.Context, jobs []routeJob) []routeResult {
	results := make([]routeResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}
	for i, job := range jobs {
		results[i].journeyID = job.journeyID
	}

	type indexed struct {
		index int
		job   routeJob
	}
	jobChan := make(chan indexed, len(jobs))
	type indexedResult struct {
		index  int
		result routeResult
	}
	resultChan := make(chan indexedResult, len(jobs))

	workers := min(p.workers, len(jobs))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				start := time.Now()
				route, err := p.optimize(item.job)
				resultChan <- indexedResult{item.index, routeResult{
					journeyID: item.job.journeyID,
					route:     route,
					err:       err,
					duration:  time.Since(start),
					done:      true,
				}}
			}
		}()
	}

	for i, job := range jobs {
		jobChan <- indexed{i, job}
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for r := range resultChan {
		results[r.index] = r.result
	}

	return results
}

// optimize 单个任务内的 panic 转为该行程的错误，不影响其他工作协程
func (p *RoutePool) optimize(job routeJob) (route *model.OptimizedRoute, err error) {
	defer func() {
		if r := recover(); r != nil {
			route, err = nil, fmt.Errorf("行程 %s 路线优化内部错误: %v", job.journeyID, r)
		}
	}()
	return p.optimizer.Optimize(job.waypoints, job.opts)
}
