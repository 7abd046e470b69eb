package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/paiban/homevisit/pkg/model"
)

const patientColumns = `
	id, name, document, phone, address, locality, zone_id, lat, lng, diagnosis, status,
	frequency, last_visit_date, next_scheduled_visit_date, preferred_professional_id,
	created_at, updated_at`

// PatientRepository 患者仓储
type PatientRepository struct {
	db DB
}

// NewPatientRepository 创建患者仓储
func NewPatientRepository(db DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Create 创建患者
func (r *PatientRepository) Create(ctx context.Context, p *model.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	freqJSON, err := json.Marshal(p.Frequency)
	if err != nil {
		return fmt.Errorf("序列化访视频率失败: %w", err)
	}
	var lat, lng sql.NullFloat64
	if p.Coordinate != nil {
		lat = sql.NullFloat64{Float64: p.Coordinate.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: p.Coordinate.Lng, Valid: true}
	}

	query := `INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Document, p.Phone, p.Address, p.Locality, p.ZoneID, lat, lng, p.Diagnosis, p.Status,
		freqJSON, p.LastVisitDate, p.NextScheduledVisitDate, p.PreferredProfessionalID,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建患者失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取患者，不存在时返回 nil
func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND deleted_at IS NULL`
	p, err := scanPatient(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// FindEligible 查询在管患者，可按区域与患者ID过滤
func (r *PatientRepository) FindEligible(ctx context.Context, filter model.PatientFilter) ([]*model.Patient, error) {
	query, args := eligiblePatientsQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询患者失败: %w", err)
	}
	defer rows.Close()

	var patients []*model.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历患者失败: %w", err)
	}
	return patients, nil
}

func eligiblePatientsQuery(filter model.PatientFilter) (string, []any) {
	w := &whereBuilder{}
	w.addRaw("deleted_at IS NULL")
	w.addRaw("status = 'active'")
	if len(filter.ZoneIDs) > 0 {
		w.add("zone_id = ANY(?)", pq.Array(filter.ZoneIDs))
	}
	if len(filter.PatientIDs) > 0 {
		w.add("id = ANY(?::uuid[])", uuidArray(filter.PatientIDs))
	}

	query := `SELECT ` + patientColumns + ` FROM patients WHERE ` + w.clause() + ` ORDER BY created_at, id`
	return query, w.args
}

// rowScanner 兼容 *sql.Row 与 *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*model.Patient, error) {
	p := &model.Patient{}
	var lat, lng sql.NullFloat64
	var freqJSON []byte
	var lastVisit, nextVisit sql.NullTime
	var preferred uuid.NullUUID

	err := row.Scan(
		&p.ID, &p.Name, &p.Document, &p.Phone, &p.Address, &p.Locality, &p.ZoneID, &lat, &lng, &p.Diagnosis, &p.Status,
		&freqJSON, &lastVisit, &nextVisit, &preferred,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描患者数据失败: %w", err)
	}

	if lat.Valid && lng.Valid {
		p.Coordinate = &model.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}
	if len(freqJSON) > 0 {
		if err := json.Unmarshal(freqJSON, &p.Frequency); err != nil {
			return nil, fmt.Errorf("解析患者 %s 访视频率失败: %w", p.ID, err)
		}
	}
	if lastVisit.Valid {
		p.LastVisitDate = &lastVisit.Time
	}
	if nextVisit.Valid {
		p.NextScheduledVisitDate = &nextVisit.Time
	}
	if preferred.Valid {
		p.PreferredProfessionalID = &preferred.UUID
	}
	return p, nil
}
