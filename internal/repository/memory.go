package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/paiban/homevisit/pkg/model"
)

// Snapshot 内存仓储的 JSON 快照格式
type Snapshot struct {
	Patients      []*model.Patient      `json:"patients"`
	Professionals []*model.Professional `json:"professionals"`
	Journeys      []*model.Journey      `json:"journeys,omitempty"`
}

// MemoryStore 基于快照的内存仓储，同时实现患者、专业人员与行程查询
type MemoryStore struct {
	mu            sync.RWMutex
	patients      []*model.Patient
	professionals []*model.Professional
	journeys      []*model.Journey
}

// NewMemoryStore 创建内存仓储
func NewMemoryStore(s Snapshot) *MemoryStore {
	return &MemoryStore{
		patients:      s.Patients,
		professionals: s.Professionals,
		journeys:      s.Journeys,
	}
}

// ReadSnapshot 解析 JSON 快照，缺失的ID自动生成
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("解析快照失败: %w", err)
	}
	for _, p := range s.Patients {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
	}
	for _, p := range s.Professionals {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
	}
	return s, nil
}

// ReadSnapshotFile 从文件解析快照
func ReadSnapshotFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("打开快照文件失败: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}

// LoadSnapshot 从 JSON 读取快照并创建内存仓储
func LoadSnapshot(r io.Reader) (*MemoryStore, error) {
	s, err := ReadSnapshot(r)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(s), nil
}

// LoadSnapshotFile 从文件读取快照并创建内存仓储
func LoadSnapshotFile(path string) (*MemoryStore, error) {
	s, err := ReadSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(s), nil
}

// FindEligible 查询在管患者
func (m *MemoryStore) FindEligible(_ context.Context, filter model.PatientFilter) ([]*model.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Patient
	for _, p := range m.patients {
		if !p.IsActive() {
			continue
		}
		if len(filter.ZoneIDs) > 0 && !slices.Contains(filter.ZoneIDs, p.ZoneID) {
			continue
		}
		if len(filter.PatientIDs) > 0 && !slices.Contains(filter.PatientIDs, p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// FindActive 查询在岗专业人员
func (m *MemoryStore) FindActive(_ context.Context, filter model.ProfessionalFilter) ([]*model.Professional, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Professional
	for _, p := range m.professionals {
		if !p.IsActive() {
			continue
		}
		if len(filter.ZoneIDs) > 0 && !slices.ContainsFunc(filter.ZoneIDs, p.CoversZone) {
			continue
		}
		if len(filter.ProfessionalIDs) > 0 && !slices.Contains(filter.ProfessionalIDs, p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ExistsForProfessionalOnDate 检查专业人员在某日是否已有未取消的行程
func (m *MemoryStore) ExistsForProfessionalOnDate(_ context.Context, professionalID uuid.UUID, date string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, j := range m.journeys {
		if j.ProfessionalID == professionalID && j.Date == date && !j.IsCancelled() {
			return true, nil
		}
	}
	return false, nil
}

// SavePlan 保存排程生成的行程
func (m *MemoryStore) SavePlan(_ context.Context, result *model.PlanningResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journeys = append(m.journeys, result.GeneratedJourneys...)
	return nil
}

// Journeys 返回已保存的行程
func (m *MemoryStore) Journeys() []*model.Journey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.journeys)
}
