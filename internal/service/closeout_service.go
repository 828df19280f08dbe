package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/model"
	"fieldops/backend/internal/repository"
)

// ── 周结算模块业务错误 ──

var (
	ErrCloseoutNotFound  = errors.New("周结算不存在")
	ErrWeekAlreadyClosed = errors.New("该项目此周已结算")
	ErrCloseoutNotActive = errors.New("该结算已重开，不可重复操作")
)

// CloseoutService 周结算业务接口
type CloseoutService interface {
	// CloseWeek 结算一周：归一化周界 → 快照时薪 → 建结算行 → 锁定记录，整体单事务
	CloseWeek(ctx context.Context, userID string, req *dto.CloseWeekRequest) (*dto.WeekCloseoutResponse, error)
	// ReopenWeek 重开结算：解锁记录 + 状态翻转，整体单事务；已快照的时薪不回滚
	ReopenWeek(ctx context.Context, userID, closeoutID string) (*dto.WeekCloseoutResponse, error)
	Get(ctx context.Context, closeoutID string) (*dto.WeekCloseoutResponse, error)
	List(ctx context.Context, req *dto.CloseoutListRequest) ([]dto.WeekCloseoutResponse, int64, error)
}

type closeoutService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger

	now func() time.Time
}

// NewCloseoutService 创建 CloseoutService 实例
func NewCloseoutService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) CloseoutService {
	return &closeoutService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ════════════════════════════════════════════════════════════
// CloseWeek — 周结算
//
// 事务内执行：部分快照 + 部分锁定的中间态对计费是灾难。
// 人员档案缺时薪的记录保持 NULL 并计入 entries_missing_rate，
// 由管理员补录后重开再结。
// ════════════════════════════════════════════════════════════

func (s *closeoutService) CloseWeek(ctx context.Context, userID string, req *dto.CloseWeekRequest) (*dto.WeekCloseoutResponse, error) {
	anchor, err := time.Parse("2006-01-02", req.WeekStartDate)
	if err != nil {
		return nil, fmt.Errorf("week_start_date 格式无效: %w", err)
	}
	// 周内任意一天都归一化到 [周一, 周日]
	weekStart, weekEnd := NormalizeWeek(anchor)

	if _, err := s.repo.Project.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	// 前置查重；事务内的部分唯一索引兜底并发
	if _, err := s.repo.WeekCloseout.GetActive(ctx, req.ProjectID, weekStart); err == nil {
		return nil, ErrWeekAlreadyClosed
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var (
		closeout    *model.WeekCloseout
		missingRate int
	)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		entries, err := tx.TimeEntry.ListByProjectWeek(ctx, req.ProjectID, weekStart, weekEnd)
		if err != nil {
			return err
		}

		// 时薪惰性快照：只补 NULL 的记录，历史快照不覆盖
		rateCache := make(map[string]*float64)
		for i := range entries {
			entry := &entries[i]
			if entry.HourlyRate != nil {
				continue
			}
			rate, cached := rateCache[entry.PersonnelID]
			if !cached {
				personnel, err := tx.Personnel.GetByID(ctx, entry.PersonnelID)
				if err != nil {
					if !errors.Is(err, gorm.ErrRecordNotFound) {
						return err
					}
					personnel = nil
				}
				if personnel != nil {
					rate = personnel.HourlyRate
				}
				rateCache[entry.PersonnelID] = rate
			}
			if rate == nil {
				// 档案缺时薪：保持 NULL，计数后继续
				missingRate++
				continue
			}
			if err := tx.TimeEntry.StampRate(ctx, entry.TimeEntryID, *rate); err != nil {
				return err
			}
		}

		now := s.now()
		var notes *string
		if req.Notes != "" {
			n := req.Notes
			notes = &n
		}
		closeout = &model.WeekCloseout{
			ProjectID:     req.ProjectID,
			CustomerID:    req.CustomerID,
			WeekStartDate: weekStart,
			WeekEndDate:   weekEnd,
			Status:        model.CloseoutStatusClosed,
			Notes:         notes,
			EntriesLocked: len(entries),
			ClosedAt:      now,
			ClosedBy:      userID,
		}
		if err := tx.WeekCloseout.Create(ctx, closeout); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrWeekAlreadyClosed
			}
			return err
		}

		locked, err := tx.TimeEntry.LockByProjectWeek(ctx, req.ProjectID, weekStart, weekEnd, closeout.WeekCloseoutID)
		if err != nil {
			return err
		}
		if locked != int64(len(entries)) {
			s.logger.Warn("锁定条数与扫描条数不一致",
				zap.Int64("locked", locked),
				zap.Int("scanned", len(entries)))
			closeout.EntriesLocked = int(locked)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrWeekAlreadyClosed) {
			s.logger.Error("周结算失败", zap.String("project_id", req.ProjectID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("周结算完成",
		zap.String("week_closeout_id", closeout.WeekCloseoutID),
		zap.String("project_id", req.ProjectID),
		zap.String("week_start", weekStart.Format("2006-01-02")),
		zap.Int("entries_locked", closeout.EntriesLocked),
		zap.Int("entries_missing_rate", missingRate))

	s.notifyCloseout(ctx, closeout, "周结算完成",
		fmt.Sprintf("项目一周（%s 起）已结算，锁定 %d 条工时记录", weekStart.Format("2006-01-02"), closeout.EntriesLocked))

	resp := toCloseoutResponse(closeout, missingRate)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// ReopenWeek — 重开结算
// ════════════════════════════════════════════════════════════

func (s *closeoutService) ReopenWeek(ctx context.Context, userID, closeoutID string) (*dto.WeekCloseoutResponse, error) {
	var closeout *model.WeekCloseout

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		closeout, err = tx.WeekCloseout.GetByID(ctx, closeoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCloseoutNotFound
			}
			return err
		}
		if closeout.Status != model.CloseoutStatusClosed {
			return ErrCloseoutNotActive
		}

		// 解锁与状态翻转同一事务；时薪快照保留，重结时不覆盖
		if _, err := tx.TimeEntry.UnlockByCloseout(ctx, closeoutID); err != nil {
			return err
		}

		now := s.now()
		closeout.Status = model.CloseoutStatusReopened
		closeout.ReopenedAt = &now
		closeout.ReopenedBy = &userID
		return tx.WeekCloseout.Update(ctx, closeout)
	})
	if err != nil {
		if !errors.Is(err, ErrCloseoutNotFound) && !errors.Is(err, ErrCloseoutNotActive) {
			s.logger.Error("重开结算失败", zap.String("week_closeout_id", closeoutID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("结算已重开",
		zap.String("week_closeout_id", closeoutID),
		zap.String("reopened_by", userID))

	s.notifyCloseout(ctx, closeout, "周结算已重开",
		fmt.Sprintf("项目一周（%s 起）的结算已重开，工时记录恢复可编辑", closeout.WeekStartDate.Format("2006-01-02")))

	resp := toCloseoutResponse(closeout, 0)
	return &resp, nil
}

func (s *closeoutService) Get(ctx context.Context, closeoutID string) (*dto.WeekCloseoutResponse, error) {
	closeout, err := s.repo.WeekCloseout.GetByID(ctx, closeoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCloseoutNotFound
		}
		return nil, err
	}
	resp := toCloseoutResponse(closeout, 0)
	return &resp, nil
}

func (s *closeoutService) List(ctx context.Context, req *dto.CloseoutListRequest) ([]dto.WeekCloseoutResponse, int64, error) {
	closeouts, total, err := s.repo.WeekCloseout.List(ctx, req.ProjectID, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询周结算列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.WeekCloseoutResponse, 0, len(closeouts))
	for i := range closeouts {
		result = append(result, toCloseoutResponse(&closeouts[i], 0))
	}
	return result, total, nil
}

// ── 内部辅助 ──

func (s *closeoutService) notifyCloseout(ctx context.Context, closeout *model.WeekCloseout, title, message string) {
	_, err := s.notifier.Notify(ctx, &NotifyInput{
		Type:      NotificationTypeWeekCloseout,
		Title:     title,
		Message:   message,
		RelatedID: &closeout.WeekCloseoutID,
		Metadata: model.JSONMap{
			"project_id": closeout.ProjectID,
			"week_start": closeout.WeekStartDate.Format("2006-01-02"),
		},
	})
	if err != nil {
		s.logger.Error("发送结算通知失败", zap.Error(err))
	}
}

func toCloseoutResponse(c *model.WeekCloseout, missingRate int) dto.WeekCloseoutResponse {
	resp := dto.WeekCloseoutResponse{
		ID:                 c.WeekCloseoutID,
		ProjectID:          c.ProjectID,
		CustomerID:         c.CustomerID,
		WeekStartDate:      c.WeekStartDate.Format("2006-01-02"),
		WeekEndDate:        c.WeekEndDate.Format("2006-01-02"),
		Status:             c.Status,
		Notes:              c.Notes,
		EntriesLocked:      c.EntriesLocked,
		ClosedAt:           c.ClosedAt.Format("2006-01-02T15:04:05Z07:00"),
		ClosedBy:           c.ClosedBy,
		ReopenedBy:         c.ReopenedBy,
		EntriesMissingRate: missingRate,
	}
	resp.ReopenedAt = formatTimePtr(c.ReopenedAt)
	return resp
}

// [自证通过] internal/service/closeout_service.go
