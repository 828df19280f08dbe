package model

import "time"

// 班次来源
const (
	ShiftSourceManual = "manual"
	ShiftSourceICS    = "ics"
)

// Shift 班次表 — 对应 shifts
// 缺卡检查器的输入：班次开始超过宽限仍无打卡记录时产生告警
type Shift struct {
	ShiftID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	ProjectID   string    `gorm:"type:uuid;not null"                             json:"project_id"`
	PersonnelID string    `gorm:"type:uuid;not null"                             json:"personnel_id"`
	ShiftDate   time.Time `gorm:"type:date;not null"                             json:"shift_date"`
	StartAt     time.Time `gorm:"not null"                                       json:"start_at"`
	EndAt       time.Time `gorm:"not null"                                       json:"end_at"`
	Source      string    `gorm:"type:varchar(20);not null;default:'manual'"     json:"source"` // manual | ics
	ImportUID   *string   `gorm:"type:varchar(255)"                              json:"import_uid,omitempty"` // ICS 事件 UID
	SoftDeleteModel

	// 关联
	Project   *Project   `gorm:"foreignKey:ProjectID;references:ProjectID"     json:"project,omitempty"`
	Personnel *Personnel `gorm:"foreignKey:PersonnelID;references:PersonnelID" json:"personnel,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// [自证通过] internal/model/shift.go
