package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fieldops/backend/internal/model"
	"fieldops/backend/internal/repository"
	pkgerrors "fieldops/backend/pkg/errors"
)

// ── 内存版 Repository mock ──
//
// 服务层测试不触数据库：用 map 模拟各表，
// 关键语义（乐观锁、唯一约束、锁定只读）按真实仓储行为实现

type mockStore struct {
	users      map[string]*model.User
	projects   map[string]*model.Project
	personnel  map[string]*model.Personnel
	entries    map[string]*model.TimeEntry
	alerts     map[string]*model.ClockAlert
	alertKeys  map[string]bool
	closeouts  map[string]*model.WeekCloseout
	shifts     map[string]*model.Shift
	shiftUIDs  map[string]bool
	notifs     map[string]*model.Notification
	prefs      map[string]*model.NotificationPreference
	notifOrder []string
}

func newMockStore() *mockStore {
	return &mockStore{
		users:     make(map[string]*model.User),
		projects:  make(map[string]*model.Project),
		personnel: make(map[string]*model.Personnel),
		entries:   make(map[string]*model.TimeEntry),
		alerts:    make(map[string]*model.ClockAlert),
		alertKeys: make(map[string]bool),
		closeouts: make(map[string]*model.WeekCloseout),
		shifts:    make(map[string]*model.Shift),
		shiftUIDs: make(map[string]bool),
		notifs:    make(map[string]*model.Notification),
		prefs:     make(map[string]*model.NotificationPreference),
	}
}

// newTestRepo 构造绑定内存 store 的仓储聚合
// db 为零值，Transaction 退化为顺序执行
func newTestRepo(store *mockStore) *repository.Repository {
	return &repository.Repository{
		User:         &mockUserRepo{store: store},
		Project:      &mockProjectRepo{store: store},
		Personnel:    &mockPersonnelRepo{store: store},
		TimeEntry:    &mockTimeEntryRepo{store: store},
		ClockAlert:   &mockClockAlertRepo{store: store},
		WeekCloseout: &mockWeekCloseoutRepo{store: store},
		Shift:        &mockShiftRepo{store: store},
		Notification: &mockNotificationRepo{store: store},
	}
}

// ── UserRepository ──

type mockUserRepo struct{ store *mockStore }

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.store.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *mockUserRepo) ListByRoles(_ context.Context, roles []string) ([]model.User, error) {
	var out []model.User
	for _, u := range m.store.users {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, *u)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// ── ProjectRepository ──

type mockProjectRepo struct{ store *mockStore }

func (m *mockProjectRepo) Create(_ context.Context, p *model.Project) error {
	if p.ProjectID == "" {
		p.ProjectID = uuid.NewString()
	}
	m.store.projects[p.ProjectID] = p
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	p, ok := m.store.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (m *mockProjectRepo) List(_ context.Context, _, _ int) ([]model.Project, int64, error) {
	var out []model.Project
	for _, p := range m.store.projects {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (m *mockProjectRepo) Update(_ context.Context, p *model.Project) error {
	m.store.projects[p.ProjectID] = p
	return nil
}

// ── PersonnelRepository ──

type mockPersonnelRepo struct{ store *mockStore }

func (m *mockPersonnelRepo) Create(_ context.Context, p *model.Personnel) error {
	if p.PersonnelID == "" {
		p.PersonnelID = uuid.NewString()
	}
	m.store.personnel[p.PersonnelID] = p
	return nil
}

func (m *mockPersonnelRepo) GetByID(_ context.Context, id string) (*model.Personnel, error) {
	p, ok := m.store.personnel[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (m *mockPersonnelRepo) GetByUserID(_ context.Context, userID string) (*model.Personnel, error) {
	for _, p := range m.store.personnel {
		if p.UserID != nil && *p.UserID == userID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonnelRepo) List(_ context.Context, _ bool, _, _ int) ([]model.Personnel, int64, error) {
	var out []model.Personnel
	for _, p := range m.store.personnel {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (m *mockPersonnelRepo) Update(_ context.Context, p *model.Personnel) error {
	m.store.personnel[p.PersonnelID] = p
	return nil
}

// ── TimeEntryRepository ──

type mockTimeEntryRepo struct{ store *mockStore }

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func (m *mockTimeEntryRepo) Create(_ context.Context, e *model.TimeEntry) error {
	// 模拟单开记录的部分唯一索引
	if e.EntrySource == model.EntrySourceClock && e.ClockOutAt == nil {
		for _, existing := range m.store.entries {
			if existing.PersonnelID == e.PersonnelID &&
				existing.ProjectID == e.ProjectID &&
				sameDate(existing.EntryDate, e.EntryDate) &&
				existing.EntrySource == model.EntrySourceClock &&
				existing.ClockOutAt == nil {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if e.TimeEntryID == "" {
		e.TimeEntryID = uuid.NewString()
	}
	if e.Version == 0 {
		e.Version = 1
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	cp := *e
	m.store.entries[e.TimeEntryID] = &cp
	return nil
}

func (m *mockTimeEntryRepo) GetByID(_ context.Context, id string) (*model.TimeEntry, error) {
	e, ok := m.store.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockTimeEntryRepo) GetOpen(_ context.Context, personnelID, projectID string, entryDate time.Time) (*model.TimeEntry, error) {
	for _, e := range m.store.entries {
		if e.PersonnelID == personnelID && e.ProjectID == projectID &&
			sameDate(e.EntryDate, entryDate) &&
			e.EntrySource == model.EntrySourceClock && e.ClockOutAt == nil {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeEntryRepo) GetLatest(_ context.Context, personnelID, projectID string) (*model.TimeEntry, error) {
	var latest *model.TimeEntry
	for _, e := range m.store.entries {
		if e.PersonnelID != personnelID || e.ProjectID != projectID {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockTimeEntryRepo) List(_ context.Context, filter *repository.TimeEntryFilter) ([]model.TimeEntry, int64, error) {
	var out []model.TimeEntry
	for _, e := range m.store.entries {
		if filter.ProjectID != "" && e.ProjectID != filter.ProjectID {
			continue
		}
		if filter.PersonnelID != "" && e.PersonnelID != filter.PersonnelID {
			continue
		}
		if filter.OpenOnly && e.ClockOutAt != nil {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (m *mockTimeEntryRepo) ListStale(_ context.Context, cutoff time.Time) ([]model.TimeEntry, error) {
	var out []model.TimeEntry
	for _, e := range m.store.entries {
		if e.ClockOutAt != nil || e.ClockInAt == nil || e.AutoClockedOut || e.IsOnLunch {
			continue
		}
		project, ok := m.store.projects[e.ProjectID]
		if !ok || !project.RequireClockLocation {
			continue
		}
		if e.LastLocationCheckAt == nil || !e.LastLocationCheckAt.Before(cutoff) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeEntryID < out[j].TimeEntryID })
	return out, nil
}

func (m *mockTimeEntryRepo) ListByProjectWeek(_ context.Context, projectID string, weekStart, weekEnd time.Time) ([]model.TimeEntry, error) {
	var out []model.TimeEntry
	from := weekStart.Format("2006-01-02")
	to := weekEnd.Format("2006-01-02")
	for _, e := range m.store.entries {
		if e.ProjectID != projectID {
			continue
		}
		d := e.EntryDate.Format("2006-01-02")
		if d < from || d > to {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeEntryID < out[j].TimeEntryID })
	return out, nil
}

func (m *mockTimeEntryRepo) Update(_ context.Context, e *model.TimeEntry) error {
	if e.IsLocked {
		return pkgerrors.ErrEntryLocked
	}
	stored, ok := m.store.entries[e.TimeEntryID]
	if !ok || stored.Version != e.Version || stored.IsLocked {
		return pkgerrors.ErrOptimisticLock
	}
	e.Version++
	cp := *e
	m.store.entries[e.TimeEntryID] = &cp
	return nil
}

func (m *mockTimeEntryRepo) StampRate(_ context.Context, entryID string, rate float64) error {
	e, ok := m.store.entries[entryID]
	if ok && e.HourlyRate == nil {
		r := rate
		e.HourlyRate = &r
	}
	return nil
}

func (m *mockTimeEntryRepo) LockByProjectWeek(_ context.Context, projectID string, weekStart, weekEnd time.Time, closeoutID string) (int64, error) {
	var n int64
	from := weekStart.Format("2006-01-02")
	to := weekEnd.Format("2006-01-02")
	for _, e := range m.store.entries {
		if e.ProjectID != projectID {
			continue
		}
		d := e.EntryDate.Format("2006-01-02")
		if d < from || d > to {
			continue
		}
		id := closeoutID
		e.IsLocked = true
		e.WeekCloseoutID = &id
		n++
	}
	return n, nil
}

func (m *mockTimeEntryRepo) UnlockByCloseout(_ context.Context, closeoutID string) (int64, error) {
	var n int64
	for _, e := range m.store.entries {
		if e.WeekCloseoutID != nil && *e.WeekCloseoutID == closeoutID {
			e.IsLocked = false
			e.WeekCloseoutID = nil
			n++
		}
	}
	return n, nil
}

func (m *mockTimeEntryRepo) ExistsForDate(_ context.Context, personnelID, projectID string, entryDate time.Time) (bool, error) {
	for _, e := range m.store.entries {
		if e.PersonnelID == personnelID && e.ProjectID == projectID && sameDate(e.EntryDate, entryDate) {
			return true, nil
		}
	}
	return false, nil
}

// ── ClockAlertRepository ──

type mockClockAlertRepo struct{ store *mockStore }

func alertKey(personnelID, projectID, alertType string, alertDate time.Time) string {
	return personnelID + "|" + projectID + "|" + alertType + "|" + alertDate.Format("2006-01-02")
}

func (m *mockClockAlertRepo) Create(_ context.Context, a *model.ClockAlert) error {
	key := alertKey(a.PersonnelID, a.ProjectID, a.AlertType, a.AlertDate)
	if m.store.alertKeys[key] {
		return pkgerrors.ErrDuplicateAlert
	}
	if a.ClockAlertID == "" {
		a.ClockAlertID = uuid.NewString()
	}
	m.store.alertKeys[key] = true
	m.store.alerts[a.ClockAlertID] = a
	return nil
}

func (m *mockClockAlertRepo) Exists(_ context.Context, personnelID, projectID, alertType string, alertDate time.Time) (bool, error) {
	return m.store.alertKeys[alertKey(personnelID, projectID, alertType, alertDate)], nil
}

func (m *mockClockAlertRepo) List(_ context.Context, projectID, alertType string, _, _ int) ([]model.ClockAlert, int64, error) {
	var out []model.ClockAlert
	for _, a := range m.store.alerts {
		if projectID != "" && a.ProjectID != projectID {
			continue
		}
		if alertType != "" && a.AlertType != alertType {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

// ── WeekCloseoutRepository ──

type mockWeekCloseoutRepo struct{ store *mockStore }

func (m *mockWeekCloseoutRepo) Create(_ context.Context, c *model.WeekCloseout) error {
	for _, existing := range m.store.closeouts {
		if existing.ProjectID == c.ProjectID &&
			sameDate(existing.WeekStartDate, c.WeekStartDate) &&
			existing.Status == model.CloseoutStatusClosed {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.WeekCloseoutID == "" {
		c.WeekCloseoutID = uuid.NewString()
	}
	m.store.closeouts[c.WeekCloseoutID] = c
	return nil
}

func (m *mockWeekCloseoutRepo) GetByID(_ context.Context, id string) (*model.WeekCloseout, error) {
	c, ok := m.store.closeouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *mockWeekCloseoutRepo) GetActive(_ context.Context, projectID string, weekStart time.Time) (*model.WeekCloseout, error) {
	for _, c := range m.store.closeouts {
		if c.ProjectID == projectID && sameDate(c.WeekStartDate, weekStart) &&
			c.Status == model.CloseoutStatusClosed {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWeekCloseoutRepo) List(_ context.Context, projectID, status string, _, _ int) ([]model.WeekCloseout, int64, error) {
	var out []model.WeekCloseout
	for _, c := range m.store.closeouts {
		if projectID != "" && c.ProjectID != projectID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (m *mockWeekCloseoutRepo) Update(_ context.Context, c *model.WeekCloseout) error {
	m.store.closeouts[c.WeekCloseoutID] = c
	return nil
}

// ── ShiftRepository ──

type mockShiftRepo struct{ store *mockStore }

func (m *mockShiftRepo) Create(_ context.Context, sh *model.Shift) error {
	if sh.ImportUID != nil {
		key := sh.ProjectID + "|" + *sh.ImportUID
		if m.store.shiftUIDs[key] {
			return gorm.ErrDuplicatedKey
		}
		m.store.shiftUIDs[key] = true
	}
	if sh.ShiftID == "" {
		sh.ShiftID = uuid.NewString()
	}
	m.store.shifts[sh.ShiftID] = sh
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	sh, ok := m.store.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sh, nil
}

func (m *mockShiftRepo) List(_ context.Context, filter *repository.ShiftFilter) ([]model.Shift, int64, error) {
	var out []model.Shift
	for _, sh := range m.store.shifts {
		if filter.ProjectID != "" && sh.ProjectID != filter.ProjectID {
			continue
		}
		if filter.PersonnelID != "" && sh.PersonnelID != filter.PersonnelID {
			continue
		}
		out = append(out, *sh)
	}
	return out, int64(len(out)), nil
}

func (m *mockShiftRepo) ListDue(_ context.Context, shiftDate, cutoff time.Time) ([]model.Shift, error) {
	var out []model.Shift
	for _, sh := range m.store.shifts {
		if !sameDate(sh.ShiftDate, shiftDate) || sh.StartAt.After(cutoff) {
			continue
		}
		cp := *sh
		if p, ok := m.store.projects[sh.ProjectID]; ok {
			cp.Project = p
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShiftID < out[j].ShiftID })
	return out, nil
}

func (m *mockShiftRepo) BatchImport(ctx context.Context, shifts []model.Shift) (int, int, error) {
	imported, skipped := 0, 0
	for i := range shifts {
		if err := m.Create(ctx, &shifts[i]); err != nil {
			if err == gorm.ErrDuplicatedKey {
				skipped++
				continue
			}
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.store.shifts, id)
	return nil
}

// ── NotificationRepository ──

type mockNotificationRepo struct{ store *mockStore }

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = uuid.NewString()
	}
	m.store.notifs[n.NotificationID] = n
	m.store.notifOrder = append(m.store.notifOrder, n.NotificationID)
	return nil
}

func (m *mockNotificationRepo) GetUnreadByGroupKey(_ context.Context, userID, groupKey string) (*model.Notification, error) {
	for _, n := range m.store.notifs {
		if n.UserID == userID && !n.IsRead && n.GroupKey != nil && *n.GroupKey == groupKey {
			return n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) IncrementGroup(_ context.Context, notificationID, title, message string) error {
	n, ok := m.store.notifs[notificationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.Count++
	n.Title = title
	n.Message = message
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, _, _ int) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, id := range m.store.notifOrder {
		n := m.store.notifs[id]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, notif := range m.store.notifs {
		if notif.UserID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, notificationID string) error {
	if n, ok := m.store.notifs[notificationID]; ok && n.UserID == userID {
		n.IsRead = true
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for _, n := range m.store.notifs {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) GetPreference(_ context.Context, userID string) (*model.NotificationPreference, error) {
	p, ok := m.store.prefs[userID]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func (m *mockNotificationRepo) UpsertPreference(_ context.Context, pref *model.NotificationPreference) error {
	m.store.prefs[pref.UserID] = pref
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
