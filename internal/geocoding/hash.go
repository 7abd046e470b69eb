// Package geocoding 提供地址到坐标的解析：确定性离线解析器与 SQLite 缓存
package geocoding

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"

	"github.com/paiban/homevisit/pkg/model"
)

// ErrEmptyAddress 地址为空
var ErrEmptyAddress = errors.New("地址为空")

// HashGeocoder 离线解析器：按地址哈希在中心点附近生成稳定坐标
// 相同的规范化地址总是得到相同坐标，适合演示与测试
type HashGeocoder struct {
	center model.Coordinate
	spread float64
}

// NewHashGeocoder 创建离线解析器，spread 为偏移的最大度数
func NewHashGeocoder(center model.Coordinate, spread float64) *HashGeocoder {
	return &HashGeocoder{center: center, spread: spread}
}

// Resolve 解析地址
func (g *HashGeocoder) Resolve(ctx context.Context, address, locality string) (model.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return model.Coordinate{}, err
	}
	key := Normalize(address, locality)
	if key == "" {
		return model.Coordinate{}, ErrEmptyAddress
	}

	h := fnv.New64a()
	h.Write([]byte(key))
	sum := h.Sum64()

	// 高低 32 位分别映射到 [-1, 1]
	dLat := float64(sum>>32)/float64(1<<32)*2 - 1
	dLng := float64(sum&0xffffffff)/float64(1<<32)*2 - 1

	c := model.Coordinate{
		Lat: clamp(g.center.Lat+dLat*g.spread, -90, 90),
		Lng: clamp(g.center.Lng+dLng*g.spread, -180, 180),
	}
	return c, nil
}

// Normalize 生成缓存键：小写、去除多余空白，地址与地区以 | 连接
func Normalize(address, locality string) string {
	address = strings.Join(strings.Fields(strings.ToLower(address)), " ")
	if address == "" {
		return ""
	}
	locality = strings.Join(strings.Fields(strings.ToLower(locality)), " ")
	if locality == "" {
		return address
	}
	return address + "|" + locality
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
