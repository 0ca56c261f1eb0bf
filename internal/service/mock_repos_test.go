package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"course-shifts/config"
	"course-shifts/internal/model"
	"course-shifts/internal/repository"
)

// ── 内存存储：模拟数据库的唯一约束与级联删除 ──

type memStore struct {
	users    map[string]*model.User
	settings map[string]*model.CourseShiftSettings
	shifts   map[string]*model.CourseShiftGroup
	members  map[string]*model.CourseShiftMembership
	plans    map[string]*model.CourseShiftPlan
	seq      int
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*model.User),
		settings: make(map[string]*model.CourseShiftSettings),
		shifts:   make(map[string]*model.CourseShiftGroup),
		members:  make(map[string]*model.CourseShiftMembership),
		plans:    make(map[string]*model.CourseShiftPlan),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

// membershipsOf 返回用户在课程中的 membership 行数
func (s *memStore) membershipsOf(userID, courseKey string) int {
	n := 0
	for _, m := range s.members {
		if m.UserID == userID && m.CourseKey == courseKey {
			n++
		}
	}
	return n
}

func newTestRepo() (*repository.Repository, *memStore) {
	store := newMemStore()
	repo := &repository.Repository{
		User:            &mockUserRepo{store: store},
		ShiftSettings:   &mockShiftSettingsRepo{store: store},
		ShiftGroup:      &mockShiftGroupRepo{store: store},
		ShiftMembership: &mockShiftMembershipRepo{store: store},
		ShiftPlan:       &mockShiftPlanRepo{store: store},
	}
	return repo, store
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	store *memStore
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.store.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = m.store.nextID("user")
	}
	cp := *user
	m.store.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.store.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.store.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	u, ok := m.store.users[user.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Email = user.Email
	u.IsStaff = user.IsStaff
	return nil
}

// ── Mock ShiftSettingsRepository ──

type mockShiftSettingsRepo struct {
	store *memStore
}

func (m *mockShiftSettingsRepo) GetByCourse(_ context.Context, courseKey string) (*model.CourseShiftSettings, error) {
	if s, ok := m.store.settings[courseKey]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftSettingsRepo) GetOrCreate(ctx context.Context, defaults *model.CourseShiftSettings) (*model.CourseShiftSettings, bool, error) {
	created := false
	if _, ok := m.store.settings[defaults.CourseKey]; !ok {
		cp := *defaults
		cp.SettingsID = m.store.nextID("settings")
		m.store.settings[defaults.CourseKey] = &cp
		created = true
	}
	s, err := m.GetByCourse(ctx, defaults.CourseKey)
	return s, created, err
}

func (m *mockShiftSettingsRepo) Update(_ context.Context, settings *model.CourseShiftSettings) error {
	cp := *settings
	m.store.settings[settings.CourseKey] = &cp
	return nil
}

// ── Mock ShiftGroupRepository ──

type mockShiftGroupRepo struct {
	store *memStore
	// failCreate 非空时在插入前调用，返回错误则插入失败
	failCreate func(shift *model.CourseShiftGroup) error
}

func (m *mockShiftGroupRepo) conflicts(shift *model.CourseShiftGroup) bool {
	for _, s := range m.store.shifts {
		if s.ShiftID == shift.ShiftID || s.CourseKey != shift.CourseKey {
			continue
		}
		if s.Name == shift.Name || s.StartDate.Equal(shift.StartDate) {
			return true
		}
	}
	return false
}

func (m *mockShiftGroupRepo) Create(_ context.Context, shift *model.CourseShiftGroup) error {
	if m.failCreate != nil {
		if err := m.failCreate(shift); err != nil {
			return err
		}
	}
	if m.conflicts(shift) {
		return gorm.ErrDuplicatedKey
	}
	if shift.ShiftID == "" {
		shift.ShiftID = m.store.nextID("shift")
	}
	cp := *shift
	m.store.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftGroupRepo) GetByID(_ context.Context, id string) (*model.CourseShiftGroup, error) {
	if s, ok := m.store.shifts[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftGroupRepo) GetByName(_ context.Context, courseKey, name string) (*model.CourseShiftGroup, error) {
	for _, s := range m.store.shifts {
		if s.CourseKey == courseKey && s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftGroupRepo) GetByStartDate(_ context.Context, courseKey string, startDate time.Time) (*model.CourseShiftGroup, error) {
	for _, s := range m.store.shifts {
		if s.CourseKey == courseKey && s.StartDate.Equal(dateOnly(startDate)) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftGroupRepo) GetLatest(ctx context.Context, courseKey string) (*model.CourseShiftGroup, error) {
	shifts, _ := m.ListByCourse(ctx, courseKey)
	if len(shifts) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &shifts[0], nil
}

func (m *mockShiftGroupRepo) ListByCourse(_ context.Context, courseKey string) ([]model.CourseShiftGroup, error) {
	var result []model.CourseShiftGroup
	for _, s := range m.store.shifts {
		if s.CourseKey == courseKey {
			result = append(result, *s)
		}
	}
	sortShifts(result)
	return result, nil
}

func (m *mockShiftGroupRepo) Update(_ context.Context, shift *model.CourseShiftGroup) error {
	if _, ok := m.store.shifts[shift.ShiftID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if m.conflicts(shift) {
		return gorm.ErrDuplicatedKey
	}
	cp := *shift
	m.store.shifts[shift.ShiftID] = &cp
	return nil
}

// Delete 与数据库外键一致：级联删除 membership
func (m *mockShiftGroupRepo) Delete(_ context.Context, id string) error {
	delete(m.store.shifts, id)
	for mid, ms := range m.store.members {
		if ms.ShiftID == id {
			delete(m.store.members, mid)
		}
	}
	return nil
}

// ── Mock ShiftMembershipRepository ──

type mockShiftMembershipRepo struct {
	store *memStore
	// afterGet 非空时在 GetByUserAndCourse 读取完成后调用
	afterGet func()
	// failCreate 非空时在插入前调用，返回错误则插入失败
	failCreate func(membership *model.CourseShiftMembership) error
}

func (m *mockShiftMembershipRepo) fill(ms *model.CourseShiftMembership) model.CourseShiftMembership {
	cp := *ms
	if s, ok := m.store.shifts[ms.ShiftID]; ok {
		shift := *s
		cp.Shift = &shift
	}
	if u, ok := m.store.users[ms.UserID]; ok {
		user := *u
		cp.User = &user
	}
	return cp
}

func (m *mockShiftMembershipRepo) GetByUserAndCourse(_ context.Context, userID, courseKey string) (*model.CourseShiftMembership, error) {
	if m.afterGet != nil {
		defer m.afterGet()
	}
	for _, ms := range m.store.members {
		if ms.UserID == userID && ms.CourseKey == courseKey {
			cp := m.fill(ms)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftMembershipRepo) Create(_ context.Context, membership *model.CourseShiftMembership) error {
	if m.failCreate != nil {
		if err := m.failCreate(membership); err != nil {
			return err
		}
	}
	shift, ok := m.store.shifts[membership.ShiftID]
	if !ok || shift.CourseKey != membership.CourseKey {
		return fmt.Errorf("外键约束失败: shift %s", membership.ShiftID)
	}
	if m.store.membershipsOf(membership.UserID, membership.CourseKey) > 0 {
		return gorm.ErrDuplicatedKey
	}
	membership.MembershipID = m.store.nextID("member")
	membership.CreatedAt = time.Date(2026, 3, 1, 8, 0, m.store.seq, 0, time.UTC)
	cp := *membership
	cp.Shift, cp.User = nil, nil
	m.store.members[membership.MembershipID] = &cp
	return nil
}

func (m *mockShiftMembershipRepo) Delete(_ context.Context, membershipID string) error {
	delete(m.store.members, membershipID)
	return nil
}

func (m *mockShiftMembershipRepo) DeleteByShift(_ context.Context, shiftID string) (int64, error) {
	var n int64
	for id, ms := range m.store.members {
		if ms.ShiftID == shiftID {
			delete(m.store.members, id)
			n++
		}
	}
	return n, nil
}

func (m *mockShiftMembershipRepo) list(match func(*model.CourseShiftMembership) bool) []model.CourseShiftMembership {
	var result []model.CourseShiftMembership
	for _, ms := range m.store.members {
		if match(ms) {
			result = append(result, m.fill(ms))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

func (m *mockShiftMembershipRepo) ListByShift(_ context.Context, shiftID string) ([]model.CourseShiftMembership, error) {
	return m.list(func(ms *model.CourseShiftMembership) bool { return ms.ShiftID == shiftID }), nil
}

func (m *mockShiftMembershipRepo) ListByCourse(_ context.Context, courseKey string) ([]model.CourseShiftMembership, error) {
	return m.list(func(ms *model.CourseShiftMembership) bool { return ms.CourseKey == courseKey }), nil
}

func (m *mockShiftMembershipRepo) CountByShift(_ context.Context, shiftID string) (int64, error) {
	return int64(len(m.list(func(ms *model.CourseShiftMembership) bool { return ms.ShiftID == shiftID }))), nil
}

// ── Mock ShiftPlanRepository ──

type mockShiftPlanRepo struct {
	store *memStore
}

func (m *mockShiftPlanRepo) Create(ctx context.Context, plan *model.CourseShiftPlan) (*model.CourseShiftPlan, bool, error) {
	if existing, err := m.GetByCourseAndDate(ctx, plan.CourseKey, plan.StartDate); err == nil {
		return existing, false, nil
	}
	cp := *plan
	cp.PlanID = m.store.nextID("plan")
	cp.StartDate = dateOnly(plan.StartDate)
	m.store.plans[cp.PlanID] = &cp
	stored := cp
	return &stored, true, nil
}

func (m *mockShiftPlanRepo) GetByCourseAndDate(_ context.Context, courseKey string, startDate time.Time) (*model.CourseShiftPlan, error) {
	for _, p := range m.store.plans {
		if p.CourseKey == courseKey && p.StartDate.Equal(dateOnly(startDate)) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftPlanRepo) ListByCourse(_ context.Context, courseKey string) ([]model.CourseShiftPlan, error) {
	var result []model.CourseShiftPlan
	for _, p := range m.store.plans {
		if p.CourseKey == courseKey {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (m *mockShiftPlanRepo) Delete(_ context.Context, planID string) error {
	if _, ok := m.store.plans[planID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.store.plans, planID)
	return nil
}

// ── 测试数据 ──

// 固定“今天”：2026-03-15
var testToday = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return addDays(testToday, offset)
}

func testShiftConfig() *config.ShiftConfig {
	return &config.ShiftConfig{
		DefaultEnrollBeforeDays:    14,
		DefaultEnrollAfterDays:     7,
		DefaultAutostartPeriodDays: 28,
		DefaultIsAutostart:         true,
		ShiftUpOnly:                true,
		Timezone:                   "UTC",
	}
}

func (s *memStore) addUser(username string) *model.User {
	u := &model.User{UserID: s.nextID("user"), Username: username, Email: username + "@example.com"}
	s.users[u.UserID] = u
	return u
}

func (s *memStore) addShift(courseKey, name string, start time.Time, daysShift int) *model.CourseShiftGroup {
	sh := &model.CourseShiftGroup{
		ShiftID:   s.nextID("shift"),
		CourseKey: courseKey,
		Name:      name,
		StartDate: dateOnly(start),
		DaysShift: daysShift,
	}
	s.shifts[sh.ShiftID] = sh
	cp := *sh
	return &cp
}

func (s *memStore) addMember(user *model.User, shift *model.CourseShiftGroup) {
	id := s.nextID("member")
	s.members[id] = &model.CourseShiftMembership{
		MembershipID: id,
		UserID:       user.UserID,
		ShiftID:      shift.ShiftID,
		CourseKey:    shift.CourseKey,
	}
}

func (s *memStore) setSettings(settings *model.CourseShiftSettings) {
	cp := *settings
	s.settings[settings.CourseKey] = &cp
}

func (s *memStore) countShifts(courseKey string) int {
	n := 0
	for _, sh := range s.shifts {
		if sh.CourseKey == courseKey {
			n++
		}
	}
	return n
}
