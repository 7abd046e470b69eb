package model

import "github.com/google/uuid"

// Professional 居家护理专业人员
type Professional struct {
	BaseModel
	Name            string      `json:"name" db:"name"`
	Specialty       string      `json:"specialty,omitempty" db:"specialty"`
	Phone           string      `json:"phone,omitempty" db:"phone"`
	Status          string      `json:"status" db:"status"` // active/inactive/leave
	MaxVisitsPerDay int         `json:"max_visits_per_day" db:"max_visits_per_day"`
	PreferredZones  []string    `json:"preferred_zones,omitempty" db:"preferred_zones"`
	HomeCoordinate  *Coordinate `json:"home_coordinate,omitempty" db:"home_coordinate"`
}

// IsActive 检查专业人员是否在岗
func (p *Professional) IsActive() bool {
	return p.Status == "active"
}

// CoversZone 检查专业人员是否偏好某区域
func (p *Professional) CoversZone(zoneID string) bool {
	if len(p.PreferredZones) == 0 {
		return true
	}
	for _, z := range p.PreferredZones {
		if z == zoneID {
			return true
		}
	}
	return false
}

// ProfessionalFilter 专业人员查询过滤器
type ProfessionalFilter struct {
	ZoneIDs         []string    `json:"zone_ids,omitempty"`
	ProfessionalIDs []uuid.UUID `json:"professional_ids,omitempty"`
}
