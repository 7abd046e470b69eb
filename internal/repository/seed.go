package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/paiban/homevisit/pkg/model"
)

// PatientStore 导入患者所需的仓储操作
type PatientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Create(ctx context.Context, p *model.Patient) error
}

// ProfessionalStore 导入专业人员所需的仓储操作
type ProfessionalStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error)
	Create(ctx context.Context, p *model.Professional) error
}

// SeedResult 导入统计
type SeedResult struct {
	PatientsCreated      int `json:"patients_created"`
	PatientsSkipped      int `json:"patients_skipped"`
	ProfessionalsCreated int `json:"professionals_created"`
	ProfessionalsSkipped int `json:"professionals_skipped"`
}

// Seed 把快照中的患者和专业人员写入仓储
// 已存在的ID跳过，重复导入同一快照不会产生重复数据
func Seed(ctx context.Context, snap Snapshot, patients PatientStore, professionals ProfessionalStore) (SeedResult, error) {
	var res SeedResult

	for _, p := range snap.Professionals {
		existing, err := professionals.GetByID(ctx, p.ID)
		if err != nil {
			return res, fmt.Errorf("查询专业人员 %s 失败: %w", p.ID, err)
		}
		if existing != nil {
			res.ProfessionalsSkipped++
			continue
		}
		if p.Status == "" {
			p.Status = "active"
		}
		if err := professionals.Create(ctx, p); err != nil {
			return res, err
		}
		res.ProfessionalsCreated++
	}

	for _, p := range snap.Patients {
		existing, err := patients.GetByID(ctx, p.ID)
		if err != nil {
			return res, fmt.Errorf("查询患者 %s 失败: %w", p.ID, err)
		}
		if existing != nil {
			res.PatientsSkipped++
			continue
		}
		if p.Status == "" {
			p.Status = "active"
		}
		if err := patients.Create(ctx, p); err != nil {
			return res, err
		}
		res.PatientsCreated++
	}

	return res, nil
}
