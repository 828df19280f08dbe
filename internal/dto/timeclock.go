package dto

// ── 打卡模块 DTO ──

// ClockInRequest 上班打卡请求
// 项目开启 require_clock_location 时 lat/lng 必传
type ClockInRequest struct {
	ProjectID string   `json:"project_id" binding:"required,uuid"`
	Lat       *float64 `json:"lat"        binding:"omitempty,min=-90,max=90"`
	Lng       *float64 `json:"lng"        binding:"omitempty,min=-180,max=180"`
}

// ClockOutRequest 下班打卡请求
type ClockOutRequest struct {
	ProjectID string   `json:"project_id" binding:"required,uuid"`
	Lat       *float64 `json:"lat"        binding:"omitempty,min=-90,max=90"`
	Lng       *float64 `json:"lng"        binding:"omitempty,min=-180,max=180"`
}

// LocationPingRequest 位置心跳请求
type LocationPingRequest struct {
	ProjectID string   `json:"project_id" binding:"required,uuid"`
	Lat       *float64 `json:"lat"        binding:"omitempty,min=-90,max=90"`
	Lng       *float64 `json:"lng"        binding:"omitempty,min=-180,max=180"`
}

// SetLunchRequest 午休切换请求
type SetLunchRequest struct {
	ProjectID string `json:"project_id" binding:"required,uuid"`
	OnLunch   *bool  `json:"on_lunch"   binding:"required"`
}

// CreateManualEntryRequest 管理端手工录入工时请求
// 时间按项目时区解释；end_time 早于 start_time 视为跨夜班次
type CreateManualEntryRequest struct {
	ProjectID   string `json:"project_id"   binding:"required,uuid"`
	PersonnelID string `json:"personnel_id" binding:"required,uuid"`
	EntryDate   string `json:"entry_date"   binding:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time"   binding:"required,datetime=15:04"`
	EndTime     string `json:"end_time"     binding:"required,datetime=15:04"`
}

// TimeEntryListRequest 工时记录列表查询参数
type TimeEntryListRequest struct {
	ProjectID   string `form:"project_id"   binding:"omitempty,uuid"`
	PersonnelID string `form:"personnel_id" binding:"omitempty,uuid"`
	DateFrom    string `form:"date_from"    binding:"omitempty,datetime=2006-01-02"`
	DateTo      string `form:"date_to"      binding:"omitempty,datetime=2006-01-02"`
	OpenOnly    bool   `form:"open_only"`
	PaginationRequest
}

// ── 响应 ──

// TimeEntryResponse 工时记录响应
type TimeEntryResponse struct {
	ID                  string   `json:"id"`
	PersonnelID         string   `json:"personnel_id"`
	PersonnelName       string   `json:"personnel_name,omitempty"`
	ProjectID           string   `json:"project_id"`
	WeekCloseoutID      *string  `json:"week_closeout_id,omitempty"`
	EntryDate           string   `json:"entry_date"`
	EntrySource         string   `json:"entry_source"`
	ClockInAt           *string  `json:"clock_in_at,omitempty"`
	ClockOutAt          *string  `json:"clock_out_at,omitempty"`
	LastLocationCheckAt *string  `json:"last_location_check_at,omitempty"`
	TotalHours          *float64 `json:"total_hours,omitempty"`
	IsOnLunch           bool     `json:"is_on_lunch"`
	IsLocked            bool     `json:"is_locked"`
	AutoClockedOut      bool     `json:"auto_clocked_out"`
	AutoClockOutReason  *string  `json:"auto_clock_out_reason,omitempty"`
	ClockBlockedUntil   *string  `json:"clock_blocked_until,omitempty"`
	HourlyRate          *float64 `json:"hourly_rate,omitempty"`
}

// ClockStatusResponse 当前打卡状态响应
type ClockStatusResponse struct {
	ClockedIn bool               `json:"clocked_in"`
	OnLunch   bool               `json:"on_lunch"`
	Entry     *TimeEntryResponse `json:"entry,omitempty"`
}

// [自证通过] internal/dto/timeclock.go
