package routing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/model"
)

// Geocoder 地址解析接口
type Geocoder interface {
	Resolve(ctx context.Context, address, locality string) (model.Coordinate, error)
}

// Stop 待转换为途经点的访视
type Stop struct {
	Visit   *model.Visit
	Patient *model.Patient
}

// Exclusion 因无法定位而被排除的访视
type Exclusion struct {
	VisitID   uuid.UUID
	PatientID uuid.UUID
	Err       error
}

// BuildWaypoints 将访视转换为途经点
// 患者无坐标时调用 geocoder；解析失败的访视被排除，不中断整条路线
func BuildWaypoints(ctx context.Context, geocoder Geocoder, stops []Stop) ([]model.Waypoint, []Exclusion) {
	waypoints := make([]model.Waypoint, 0, len(stops))
	var excluded []Exclusion

	for _, s := range stops {
		if s.Patient == nil {
			excluded = append(excluded, Exclusion{
				VisitID:   s.Visit.ID,
				PatientID: s.Visit.PatientID,
				Err:       apperrors.NotFound("患者", s.Visit.PatientID.String()),
			})
			continue
		}
		coord, err := locate(ctx, geocoder, s.Patient)
		if err != nil {
			excluded = append(excluded, Exclusion{
				VisitID:   s.Visit.ID,
				PatientID: s.Patient.ID,
				Err:       err,
			})
			continue
		}

		waypoints = append(waypoints, model.Waypoint{
			VisitID:                  s.Visit.ID,
			PatientID:                s.Patient.ID,
			PatientName:              s.Patient.Name,
			Address:                  s.Patient.Address,
			Coordinate:               coord,
			ScheduledTime:            s.Visit.ScheduledTime,
			EstimatedDurationMinutes: s.Visit.EstimatedDurationMinutes,
			OrderInRoute:             s.Visit.OrderInRoute,
		})
	}

	return waypoints, excluded
}

func locate(ctx context.Context, geocoder Geocoder, p *model.Patient) (model.Coordinate, error) {
	if p.HasCoordinate() {
		return *p.Coordinate, nil
	}
	if geocoder == nil {
		return model.Coordinate{}, apperrors.GeocodingFailed(p.Address, errors.New("未配置地理编码服务"))
	}

	coord, err := geocoder.Resolve(ctx, p.Address, p.Locality)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeGeocodingFailed) {
			return model.Coordinate{}, err
		}
		return model.Coordinate{}, apperrors.GeocodingFailed(p.Address, err)
	}
	if !coord.Valid() {
		return model.Coordinate{}, apperrors.GeocodingFailed(p.Address, errors.New("解析结果超出坐标范围"))
	}
	return coord, nil
}
