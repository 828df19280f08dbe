package dto

// ── 班次模块 DTO ──

// CreateShiftRequest 手工创建班次请求
type CreateShiftRequest struct {
	ProjectID   string `json:"project_id"   binding:"required,uuid"`
	PersonnelID string `json:"personnel_id" binding:"required,uuid"`
	ShiftDate   string `json:"shift_date"   binding:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time"   binding:"required,datetime=15:04"`
	EndTime     string `json:"end_time"     binding:"required,datetime=15:04"`
}

// ImportShiftsRequest ICS 班次导入请求
// URL 与上传内容二选一；webcal:// 自动转 https://
type ImportShiftsRequest struct {
	ProjectID   string `json:"project_id"   binding:"required,uuid"`
	PersonnelID string `json:"personnel_id" binding:"required,uuid"`
	ICSURL      string `json:"ics_url"      binding:"omitempty,max=2048"`
	ICSContent  string `json:"ics_content"  binding:"omitempty"`
}

// ShiftListRequest 班次列表查询参数
type ShiftListRequest struct {
	ProjectID   string `form:"project_id"   binding:"omitempty,uuid"`
	PersonnelID string `form:"personnel_id" binding:"omitempty,uuid"`
	DateFrom    string `form:"date_from"    binding:"omitempty,datetime=2006-01-02"`
	DateTo      string `form:"date_to"      binding:"omitempty,datetime=2006-01-02"`
	PaginationRequest
}

// ── 响应 ──

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID            string `json:"id"`
	ProjectID     string `json:"project_id"`
	PersonnelID   string `json:"personnel_id"`
	PersonnelName string `json:"personnel_name,omitempty"`
	ShiftDate     string `json:"shift_date"`
	StartAt       string `json:"start_at"`
	EndAt         string `json:"end_at"`
	Source        string `json:"source"`
}

// ImportShiftsResponse ICS 导入结果
type ImportShiftsResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"` // UID 已存在，去重跳过
}

// [自证通过] internal/dto/shift.go
