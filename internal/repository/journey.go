package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/paiban/homevisit/pkg/model"
)

// JourneyRepository 行程仓储
type JourneyRepository struct {
	db DB
}

// NewJourneyRepository 创建行程仓储
func NewJourneyRepository(db DB) *JourneyRepository {
	return &JourneyRepository{db: db}
}

// ExistsForProfessionalOnDate 检查专业人员在某日是否已有未取消的行程
func (r *JourneyRepository) ExistsForProfessionalOnDate(ctx context.Context, professionalID uuid.UUID, date string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM journeys
			WHERE professional_id = $1 AND date = $2 AND status <> $3
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, professionalID, date, model.JourneyCancelled).Scan(&exists); err != nil {
		return false, fmt.Errorf("查询行程失败: %w", err)
	}
	return exists, nil
}
