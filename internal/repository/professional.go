package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/paiban/homevisit/pkg/model"
)

const professionalColumns = `
	id, name, specialty, phone, status, max_visits_per_day, preferred_zones, home_lat, home_lng,
	created_at, updated_at`

// ProfessionalRepository 专业人员仓储
type ProfessionalRepository struct {
	db DB
}

// NewProfessionalRepository 创建专业人员仓储
func NewProfessionalRepository(db DB) *ProfessionalRepository {
	return &ProfessionalRepository{db: db}
}

// Create 创建专业人员
func (r *ProfessionalRepository) Create(ctx context.Context, p *model.Professional) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	var lat, lng sql.NullFloat64
	if p.HomeCoordinate != nil {
		lat = sql.NullFloat64{Float64: p.HomeCoordinate.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: p.HomeCoordinate.Lng, Valid: true}
	}

	query := `INSERT INTO professionals (` + professionalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Specialty, p.Phone, p.Status, p.MaxVisitsPerDay, pq.Array(p.PreferredZones), lat, lng,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建专业人员失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取专业人员，不存在时返回 nil
func (r *ProfessionalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	query := `SELECT ` + professionalColumns + ` FROM professionals WHERE id = $1 AND deleted_at IS NULL`
	p, err := scanProfessional(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// FindActive 查询在岗专业人员
// 按区域过滤时，未设置偏好区域的人员视为覆盖所有区域
func (r *ProfessionalRepository) FindActive(ctx context.Context, filter model.ProfessionalFilter) ([]*model.Professional, error) {
	query, args := activeProfessionalsQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询专业人员失败: %w", err)
	}
	defer rows.Close()

	var professionals []*model.Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描专业人员数据失败: %w", err)
		}
		professionals = append(professionals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历专业人员失败: %w", err)
	}
	return professionals, nil
}

func activeProfessionalsQuery(filter model.ProfessionalFilter) (string, []any) {
	w := &whereBuilder{}
	w.addRaw("deleted_at IS NULL")
	w.addRaw("status = 'active'")
	if len(filter.ZoneIDs) > 0 {
		w.add("(cardinality(preferred_zones) = 0 OR preferred_zones && ?)", pq.Array(filter.ZoneIDs))
	}
	if len(filter.ProfessionalIDs) > 0 {
		w.add("id = ANY(?::uuid[])", uuidArray(filter.ProfessionalIDs))
	}

	query := `SELECT ` + professionalColumns + ` FROM professionals WHERE ` + w.clause() + ` ORDER BY created_at, id`
	return query, w.args
}

func scanProfessional(row rowScanner) (*model.Professional, error) {
	p := &model.Professional{}
	var lat, lng sql.NullFloat64
	if err := row.Scan(
		&p.ID, &p.Name, &p.Specialty, &p.Phone, &p.Status, &p.MaxVisitsPerDay, pq.Array(&p.PreferredZones), &lat, &lng,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		p.HomeCoordinate = &model.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}
	return p, nil
}
