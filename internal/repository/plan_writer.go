package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/paiban/homevisit/pkg/model"
)

// PlanWriter 将排程草稿写入数据库
type PlanWriter struct {
	db TxDB
}

// NewPlanWriter 创建计划写入器
func NewPlanWriter(db TxDB) *PlanWriter {
	return &PlanWriter{db: db}
}

// SavePlan 在一个事务中保存行程、访视与排程摘要
func (w *PlanWriter) SavePlan(ctx context.Context, result *model.PlanningResult) error {
	summary, err := json.Marshal(result.OptimizationSummary)
	if err != nil {
		return fmt.Errorf("序列化排程摘要失败: %w", err)
	}
	conflicts, err := json.Marshal(result.Conflicts)
	if err != nil {
		return fmt.Errorf("序列化冲突失败: %w", err)
	}

	return w.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO planning_runs (id, executed_at, summary, conflicts) VALUES ($1, $2, $3, $4)`,
			result.PlanningID, result.ExecutedAt, summary, conflicts,
		); err != nil {
			return fmt.Errorf("保存排程记录失败: %w", err)
		}

		for _, j := range result.GeneratedJourneys {
			if err := insertJourney(ctx, tx, result, j); err != nil {
				return err
			}
			for _, v := range j.Visits {
				if err := insertVisit(ctx, tx, v); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func insertJourney(ctx context.Context, tx *sql.Tx, result *model.PlanningResult, j *model.Journey) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO journeys (
			id, professional_id, date, status, start_time, end_time,
			total_distance_meters, total_duration_minutes, optimized, planning_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		j.ID, j.ProfessionalID, j.Date, j.Status, j.StartTime, j.EndTime,
		j.TotalDistanceMeters, j.TotalDurationMinutes, j.Optimized, result.PlanningID, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("保存行程 %s 失败: %w", j.ID, err)
	}
	return nil
}

func insertVisit(ctx context.Context, tx *sql.Tx, v *model.Visit) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO visits (
			id, journey_id, patient_id, professional_id, scheduled_time, estimated_duration_minutes,
			order_in_route, status, confirmation, priority_score, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		v.ID, v.JourneyID, v.PatientID, v.ProfessionalID, v.ScheduledTime, v.EstimatedDurationMinutes,
		v.OrderInRoute, v.Status, v.Confirmation, v.PriorityScore, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("保存访视 %s 失败: %w", v.ID, err)
	}
	return nil
}
