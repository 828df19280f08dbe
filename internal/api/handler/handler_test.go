package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/service"
)

// ── 服务打桩 ──
// 函数字段可按用例覆写，默认零值返回

type stubTimeClockService struct {
	clockInFn  func(ctx context.Context, personnelID string, req *dto.ClockInRequest) (*dto.TimeEntryResponse, error)
	clockOutFn func(ctx context.Context, personnelID string, req *dto.ClockOutRequest) (*dto.TimeEntryResponse, error)
}

func (s *stubTimeClockService) ClockIn(ctx context.Context, personnelID string, req *dto.ClockInRequest) (*dto.TimeEntryResponse, error) {
	if s.clockInFn != nil {
		return s.clockInFn(ctx, personnelID, req)
	}
	return &dto.TimeEntryResponse{ID: "entry-1", PersonnelID: personnelID, ProjectID: req.ProjectID}, nil
}

func (s *stubTimeClockService) ClockOut(ctx context.Context, personnelID string, req *dto.ClockOutRequest) (*dto.TimeEntryResponse, error) {
	if s.clockOutFn != nil {
		return s.clockOutFn(ctx, personnelID, req)
	}
	return &dto.TimeEntryResponse{ID: "entry-1"}, nil
}

func (s *stubTimeClockService) Ping(ctx context.Context, personnelID string, req *dto.LocationPingRequest) (*dto.TimeEntryResponse, error) {
	return &dto.TimeEntryResponse{ID: "entry-1"}, nil
}

func (s *stubTimeClockService) SetLunch(ctx context.Context, personnelID string, req *dto.SetLunchRequest) (*dto.TimeEntryResponse, error) {
	return &dto.TimeEntryResponse{ID: "entry-1"}, nil
}

func (s *stubTimeClockService) CreateManual(ctx context.Context, userID string, req *dto.CreateManualEntryRequest) (*dto.TimeEntryResponse, error) {
	return &dto.TimeEntryResponse{ID: "entry-manual", EntrySource: "manual"}, nil
}

func (s *stubTimeClockService) Status(ctx context.Context, personnelID, projectID string) (*dto.ClockStatusResponse, error) {
	return &dto.ClockStatusResponse{ClockedIn: false}, nil
}

func (s *stubTimeClockService) List(ctx context.Context, req *dto.TimeEntryListRequest) ([]dto.TimeEntryResponse, int64, error) {
	return []dto.TimeEntryResponse{{ID: "entry-1"}}, 1, nil
}

func (s *stubTimeClockService) ListAlerts(ctx context.Context, req *dto.AlertListRequest) ([]dto.ClockAlertResponse, int64, error) {
	return nil, 0, nil
}

type stubCloseoutService struct {
	closeWeekFn func(ctx context.Context, userID string, req *dto.CloseWeekRequest) (*dto.WeekCloseoutResponse, error)
}

func (s *stubCloseoutService) CloseWeek(ctx context.Context, userID string, req *dto.CloseWeekRequest) (*dto.WeekCloseoutResponse, error) {
	if s.closeWeekFn != nil {
		return s.closeWeekFn(ctx, userID, req)
	}
	return &dto.WeekCloseoutResponse{ID: "closeout-1", Status: "closed", ClosedBy: userID}, nil
}

func (s *stubCloseoutService) ReopenWeek(ctx context.Context, userID, closeoutID string) (*dto.WeekCloseoutResponse, error) {
	return &dto.WeekCloseoutResponse{ID: closeoutID, Status: "reopened"}, nil
}

func (s *stubCloseoutService) Get(ctx context.Context, closeoutID string) (*dto.WeekCloseoutResponse, error) {
	return &dto.WeekCloseoutResponse{ID: closeoutID}, nil
}

func (s *stubCloseoutService) List(ctx context.Context, req *dto.CloseoutListRequest) ([]dto.WeekCloseoutResponse, int64, error) {
	return nil, 0, nil
}

type stubNotificationService struct {
	unread int64
}

func (s *stubNotificationService) Notify(ctx context.Context, input *service.NotifyInput) (int, error) {
	return 0, nil
}

func (s *stubNotificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	return []dto.NotificationResponse{{ID: "n-1"}}, 1, nil
}

func (s *stubNotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.unread, nil
}

func (s *stubNotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if notificationID == "missing" {
		return service.ErrNotificationNotFound
	}
	return nil
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context, userID string) error { return nil }

func (s *stubNotificationService) GetPreference(ctx context.Context, userID string) (*dto.PreferenceResponse, error) {
	return &dto.PreferenceResponse{MissedClockIn: true, AutoClockOut: true, GeofenceViolation: true, WeekCloseout: true}, nil
}

func (s *stubNotificationService) UpdatePreference(ctx context.Context, userID string, req *dto.UpdatePreferenceRequest) (*dto.PreferenceResponse, error) {
	return &dto.PreferenceResponse{}, nil
}

type stubReaperService struct{}

func (s *stubReaperService) ReapStaleSessions(ctx context.Context) (*dto.JobRunSummary, error) {
	return &dto.JobRunSummary{Job: service.JobReapStaleSessions, Checked: 2, Closed: 1, AlertsCreated: 1}, nil
}

func (s *stubReaperService) CheckMissedClockIns(ctx context.Context) (*dto.JobRunSummary, error) {
	return &dto.JobRunSummary{Job: service.JobCheckMissedClockIns, Skipped: true}, nil
}

type stubShiftService struct {
	importFn func(ctx context.Context, userID string, req *dto.ImportShiftsRequest) (*dto.ImportShiftsResponse, error)
}

func (s *stubShiftService) Create(ctx context.Context, userID string, req *dto.CreateShiftRequest) (*dto.ShiftResponse, error) {
	return &dto.ShiftResponse{ID: "shift-1"}, nil
}

func (s *stubShiftService) Import(ctx context.Context, userID string, req *dto.ImportShiftsRequest) (*dto.ImportShiftsResponse, error) {
	if s.importFn != nil {
		return s.importFn(ctx, userID, req)
	}
	return &dto.ImportShiftsResponse{Imported: 2}, nil
}

func (s *stubShiftService) List(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error) {
	return nil, 0, nil
}

func (s *stubShiftService) Delete(ctx context.Context, userID, shiftID string) error { return nil }

type stubExportService struct{}

func (s *stubExportService) ExportTimesheet(ctx context.Context, projectID, weekStartDate string) (*bytes.Buffer, string, error) {
	if projectID == "missing" {
		return nil, "", service.ErrProjectNotFound
	}
	return bytes.NewBufferString("xlsx-bytes"), "timesheet_Test_2026-08-24.xlsx", nil
}

// ── 测试路由 ──

type stubServices struct {
	timeclock    *stubTimeClockService
	closeout     *stubCloseoutService
	notification *stubNotificationService
	shift        *stubShiftService
}

func newStubServices() *stubServices {
	return &stubServices{
		timeclock:    &stubTimeClockService{},
		closeout:     &stubCloseoutService{},
		notification: &stubNotificationService{unread: 3},
		shift:        &stubShiftService{},
	}
}

// newTestRouter 注入假认证上下文并挂载全部路由
func newTestRouter(svcs *stubServices, personnelID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		if personnelID != "" {
			c.Set("personnel_id", personnelID)
		}
		c.Set("role", "admin")
		c.Next()
	})

	tc := NewTimeClockHandler(svcs.timeclock, logger)
	co := NewCloseoutHandler(svcs.closeout, logger)
	nf := NewNotificationHandler(svcs.notification, logger)
	jb := NewJobsHandler(&stubReaperService{}, logger)
	ex := NewExportHandler(&stubExportService{}, logger)
	sh := NewShiftHandler(svcs.shift, logger)

	v1 := r.Group("/api/v1")
	v1.POST("/clock/in", tc.ClockIn)
	v1.POST("/clock/out", tc.ClockOut)
	v1.POST("/clock/ping", tc.Ping)
	v1.POST("/clock/lunch", tc.SetLunch)
	v1.GET("/clock/status", tc.Status)
	v1.GET("/time-entries", tc.List)
	v1.GET("/alerts", tc.ListAlerts)
	v1.POST("/closeouts", co.CloseWeek)
	v1.GET("/closeouts", co.List)
	v1.GET("/closeouts/:id", co.Get)
	v1.POST("/closeouts/:id/reopen", co.Reopen)
	v1.GET("/notifications", nf.List)
	v1.GET("/notifications/unread-count", nf.UnreadCount)
	v1.POST("/notifications/:id/read", nf.MarkRead)
	v1.POST("/notifications/read-all", nf.MarkAllRead)
	v1.GET("/notifications/preferences", nf.GetPreference)
	v1.PUT("/notifications/preferences", nf.UpdatePreference)
	v1.POST("/jobs/reap-stale-sessions", jb.ReapStaleSessions)
	v1.POST("/jobs/check-missed-clockins", jb.CheckMissedClockIns)
	v1.GET("/export/timesheet", ex.Timesheet)
	v1.POST("/shifts", sh.Create)
	v1.POST("/shifts/import", sh.Import)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, map[string]interface{}) {
	t.Helper()
	var env struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("响应体解析失败: %v, body=%s", err, w.Body.String())
	}
	return env.Code, env.Data
}

const testProjectID = "11111111-1111-1111-1111-111111111111"

// ── 打卡 ──

func TestClockInSuccess(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/clock/in",
		`{"project_id":"`+testProjectID+`","lat":29.76,"lng":-95.37}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", w.Code, w.Body.String())
	}
	code, data := decodeEnvelope(t, w)
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	if data["id"] != "entry-1" {
		t.Errorf("data.id = %v, want entry-1", data["id"])
	}
	if data["personnel_id"] != "p-1" {
		t.Errorf("data.personnel_id = %v, want p-1", data["personnel_id"])
	}
}

func TestClockInWithoutPersonnelProfile(t *testing.T) {
	r := newTestRouter(newStubServices(), "")
	w := doRequest(t, r, http.MethodPost, "/api/v1/clock/in",
		`{"project_id":"`+testProjectID+`"}`)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	code, _ := decodeEnvelope(t, w)
	if code != 20403 {
		t.Errorf("code = %d, want 20403", code)
	}
}

func TestClockInInvalidBody(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/clock/in", `{"project_id":"not-a-uuid"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	code, _ := decodeEnvelope(t, w)
	if code != 20400 {
		t.Errorf("code = %d, want 20400", code)
	}
}

func TestClockInOutsideGeofence(t *testing.T) {
	svcs := newStubServices()
	svcs.timeclock.clockInFn = func(ctx context.Context, personnelID string, req *dto.ClockInRequest) (*dto.TimeEntryResponse, error) {
		return nil, service.ErrOutsideGeofence
	}
	r := newTestRouter(svcs, "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/clock/in",
		`{"project_id":"`+testProjectID+`","lat":32.77,"lng":-96.79}`)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	code, _ := decodeEnvelope(t, w)
	if code != 20403 {
		t.Errorf("code = %d, want 20403", code)
	}
}

func TestClockInSiteNotGeocoded(t *testing.T) {
	svcs := newStubServices()
	svcs.timeclock.clockInFn = func(ctx context.Context, personnelID string, req *dto.ClockInRequest) (*dto.TimeEntryResponse, error) {
		return nil, service.ErrSiteNotGeocoded
	}
	r := newTestRouter(svcs, "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/clock/in",
		`{"project_id":"`+testProjectID+`","lat":29.76,"lng":-95.37}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var env struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Code != 20409 {
		t.Errorf("code = %d, want 20409", env.Code)
	}
	if !strings.Contains(env.Message, "地理编码") {
		t.Errorf("message 缺少可操作提示: %s", env.Message)
	}
}

func TestClockOutNotClockedIn(t *testing.T) {
	svcs := newStubServices()
	svcs.timeclock.clockOutFn = func(ctx context.Context, personnelID string, req *dto.ClockOutRequest) (*dto.TimeEntryResponse, error) {
		return nil, service.ErrNotClockedIn
	}
	r := newTestRouter(svcs, "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/clock/out",
		`{"project_id":"`+testProjectID+`"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestClockStatusRequiresProjectID(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodGet, "/api/v1/clock/status", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestTimeEntryListPagination(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodGet, "/api/v1/time-entries?page=2&page_size=10", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	_, data := decodeEnvelope(t, w)
	page, ok := data["pagination"].(map[string]interface{})
	if !ok {
		t.Fatalf("响应缺少 pagination: %v", data)
	}
	if page["page"] != float64(2) || page["page_size"] != float64(10) {
		t.Errorf("pagination = %v", page)
	}
}

// ── 周结算 ──

func TestCloseWeekSuccess(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/closeouts",
		`{"project_id":"`+testProjectID+`","week_start_date":"2026-08-24"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", w.Code, w.Body.String())
	}
	_, data := decodeEnvelope(t, w)
	if data["closed_by"] != "user-1" {
		t.Errorf("closed_by = %v, want user-1", data["closed_by"])
	}
}

func TestCloseWeekDuplicate(t *testing.T) {
	svcs := newStubServices()
	svcs.closeout.closeWeekFn = func(ctx context.Context, userID string, req *dto.CloseWeekRequest) (*dto.WeekCloseoutResponse, error) {
		return nil, service.ErrWeekAlreadyClosed
	}
	r := newTestRouter(svcs, "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/closeouts",
		`{"project_id":"`+testProjectID+`","week_start_date":"2026-08-24"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	code, _ := decodeEnvelope(t, w)
	if code != 20409 {
		t.Errorf("code = %d, want 20409", code)
	}
}

func TestCloseWeekUnknownErrorMasksDetail(t *testing.T) {
	svcs := newStubServices()
	svcs.closeout.closeWeekFn = func(ctx context.Context, userID string, req *dto.CloseWeekRequest) (*dto.WeekCloseoutResponse, error) {
		return nil, errors.New("pq: connection reset")
	}
	r := newTestRouter(svcs, "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/closeouts",
		`{"project_id":"`+testProjectID+`","week_start_date":"2026-08-24"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var env struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Code != 50000 {
		t.Errorf("code = %d, want 50000", env.Code)
	}
	if strings.Contains(env.Message, "pq:") {
		t.Errorf("内部错误细节不应外泄: %s", env.Message)
	}
}

// ── 通知 ──

func TestNotificationUnreadCount(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodGet, "/api/v1/notifications/unread-count", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	_, data := decodeEnvelope(t, w)
	if data["unread"] != float64(3) {
		t.Errorf("unread = %v, want 3", data["unread"])
	}
}

func TestNotificationMarkReadNotFound(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/notifications/missing/read", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	code, _ := decodeEnvelope(t, w)
	if code != 20404 {
		t.Errorf("code = %d, want 20404", code)
	}
}

// ── 定时任务 ──

func TestJobsReapStaleSessions(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/jobs/reap-stale-sessions", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	_, data := decodeEnvelope(t, w)
	if data["job"] != service.JobReapStaleSessions {
		t.Errorf("job = %v", data["job"])
	}
	if data["closed"] != float64(1) {
		t.Errorf("closed = %v, want 1", data["closed"])
	}
}

func TestJobsSkippedWhenLockHeld(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/jobs/check-missed-clockins", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	_, data := decodeEnvelope(t, w)
	if data["skipped"] != true {
		t.Errorf("skipped = %v, want true", data["skipped"])
	}
}

// ── 导出 ──

func TestExportTimesheetHeaders(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodGet,
		"/api/v1/export/timesheet?project_id="+testProjectID+"&week_start_date=2026-08-24", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	ct := w.Header().Get("Content-Type")
	if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Content-Type = %s", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "timesheet_Test_2026-08-24.xlsx") {
		t.Errorf("Content-Disposition = %s", cd)
	}
}

func TestExportTimesheetMissingParams(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodGet, "/api/v1/export/timesheet?project_id="+testProjectID, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestExportTimesheetProjectNotFound(t *testing.T) {
	r := newTestRouter(newStubServices(), "p-1")
	w := doRequest(t, r, http.MethodGet,
		"/api/v1/export/timesheet?project_id=missing&week_start_date=2026-08-24", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

// ── 班次 ──

func TestShiftImportFetchFailed(t *testing.T) {
	svcs := newStubServices()
	svcs.shift.importFn = func(ctx context.Context, userID string, req *dto.ImportShiftsRequest) (*dto.ImportShiftsResponse, error) {
		return nil, service.ErrICSFetchFailed
	}
	r := newTestRouter(svcs, "p-1")
	w := doRequest(t, r, http.MethodPost, "/api/v1/shifts/import",
		`{"project_id":"`+testProjectID+`","personnel_id":"22222222-2222-2222-2222-222222222222","ics_url":"https://example.com/cal.ics"}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	code, _ := decodeEnvelope(t, w)
	if code != 20502 {
		t.Errorf("code = %d, want 20502", code)
	}
}

// [自证通过] internal/api/handler/handler_test.go
