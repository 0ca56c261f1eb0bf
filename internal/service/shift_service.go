package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-shifts/config"
	"course-shifts/internal/dto"
	"course-shifts/internal/model"
	"course-shifts/internal/repository"
	apperr "course-shifts/pkg/errors"
)

// ── shift 模块业务错误 ──

var (
	// ErrShiftsDisabled 课程未启用 shift 功能
	ErrShiftsDisabled = errors.New("课程未启用 shift")
)

// ShiftService 课程 shift 业务接口（API 层、批量导入、日期平移的统一入口）
type ShiftService interface {
	GetSettings(ctx context.Context, courseKey string) (*dto.ShiftSettingsResponse, error)
	// UpdateSettings 部分更新设置，字段不合法时返回字段错误列表且不保存
	UpdateSettings(ctx context.Context, courseKey string, req *dto.UpdateShiftSettingsRequest) ([]apperr.FieldError, error)
	UpdateShifts(ctx context.Context, courseKey string) (int, error)

	ListShifts(ctx context.Context, courseKey string) ([]dto.ShiftResponse, error)
	GetShift(ctx context.Context, courseKey, name string) (*dto.ShiftResponse, error)
	GetShiftDetail(ctx context.Context, courseKey, name string) (*dto.ShiftDetailResponse, error)
	CreateShift(ctx context.Context, courseKey string, req *dto.CreateShiftRequest) (*dto.ShiftResponse, bool, error)
	UpdateShift(ctx context.Context, courseKey, name string, req *dto.UpdateShiftRequest) (*dto.ShiftResponse, error)
	DeleteShift(ctx context.Context, courseKey, name string) error
	GetEnrollmentWindow(ctx context.Context, courseKey, name string) (*dto.EnrollmentWindowResponse, error)

	// GetActiveShifts username 为空时只按报名窗口计算
	GetActiveShifts(ctx context.Context, courseKey, username string) ([]dto.ShiftResponse, error)
	// GetUserShift 未启用或用户不在任何 shift 时返回 (nil, nil)
	GetUserShift(ctx context.Context, courseKey, username string) (*dto.ShiftResponse, error)
	// EnrollUser shiftName 为空表示退出当前 shift
	EnrollUser(ctx context.Context, courseKey, username, shiftName string, forced bool) error

	CreatePlan(ctx context.Context, courseKey string, req *dto.CreateShiftPlanRequest) (*dto.ShiftPlanResponse, bool, error)
	ListPlans(ctx context.Context, courseKey string) ([]dto.ShiftPlanResponse, error)
	DeletePlan(ctx context.Context, courseKey, startDate string) error

	GetShiftedDate(ctx context.Context, courseKey, username string, date time.Time) (time.Time, error)
	ShiftUserFields(ctx context.Context, courseKey string, req *dto.ShiftFieldsRequest) (*dto.ShiftFieldsResponse, error)
}

type shiftService struct {
	cfg       *config.ShiftConfig
	repo      *repository.Repository
	cache     ShiftCache
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
	lifecycle *shiftLifecycle
	generator *shiftGenerator
	transfer  *membershipTransfer
}

// NewShiftService 创建 ShiftService 实例，cache 为 nil 时不使用缓存
func NewShiftService(cfg *config.ShiftConfig, repo *repository.Repository, cache ShiftCache, logger *zap.Logger) ShiftService {
	return newShiftService(cfg, repo, cache, logger)
}

func newShiftService(cfg *config.ShiftConfig, repo *repository.Repository, cache ShiftCache, logger *zap.Logger) *shiftService {
	if cache == nil {
		cache = NewNoopShiftCache()
	}
	s := &shiftService{
		cfg:    cfg,
		repo:   repo,
		cache:  cache,
		logger: logger,
		loc:    cfg.Location(),
		now:    time.Now,
	}
	s.lifecycle = newShiftLifecycle(logger, s.today)
	s.generator = newShiftGenerator(s.lifecycle, logger)
	s.transfer = newMembershipTransfer(logger)
	return s
}

// today 配置时区下的当天日期
func (s *shiftService) today() time.Time {
	return dateOnly(s.now().In(s.loc))
}

// ────────────────────── Settings ──────────────────────

func (s *shiftService) GetSettings(ctx context.Context, courseKey string) (*dto.ShiftSettingsResponse, error) {
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return nil, err
	}
	s.syncShifts(ctx, settings)
	return toShiftSettingsResponse(settings), nil
}

// loadSettings 读取设置，首次访问时按配置默认值创建
func (s *shiftService) loadSettings(ctx context.Context, courseKey string) (*model.CourseShiftSettings, error) {
	if cached, ok := s.cache.GetSettings(ctx, courseKey); ok {
		return cached, nil
	}

	settings, created, err := s.repo.ShiftSettings.GetOrCreate(ctx, s.defaultSettings(courseKey))
	if err != nil {
		s.logger.Error("读取 shift 设置失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, err
	}
	if created {
		s.logger.Info("创建默认 shift 设置", zap.String("course_key", courseKey))
	}
	s.cache.SetSettings(ctx, settings)
	return settings, nil
}

func (s *shiftService) defaultSettings(courseKey string) *model.CourseShiftSettings {
	return &model.CourseShiftSettings{
		CourseKey:           courseKey,
		IsShiftEnabled:      false,
		IsAutostart:         s.cfg.DefaultIsAutostart,
		AutostartPeriodDays: s.cfg.DefaultAutostartPeriodDays,
		EnrollBeforeDays:    s.cfg.DefaultEnrollBeforeDays,
		EnrollAfterDays:     s.cfg.DefaultEnrollAfterDays,
	}
}

func (s *shiftService) UpdateSettings(ctx context.Context, courseKey string, req *dto.UpdateShiftSettingsRequest) ([]apperr.FieldError, error) {
	// 写操作绕过缓存
	settings, _, err := s.repo.ShiftSettings.GetOrCreate(ctx, s.defaultSettings(courseKey))
	if err != nil {
		s.logger.Error("读取 shift 设置失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, err
	}

	var fieldErrs []apperr.FieldError
	if req.IsShiftEnabled != nil {
		settings.IsShiftEnabled = *req.IsShiftEnabled
	}
	if req.IsAutostart != nil {
		settings.IsAutostart = *req.IsAutostart
	}
	if req.AutostartPeriodDays != nil {
		if *req.AutostartPeriodDays <= 0 {
			fieldErrs = append(fieldErrs, apperr.FieldError{Field: "autostart_period_days", Message: "必须为正数"})
		} else {
			settings.AutostartPeriodDays = *req.AutostartPeriodDays
		}
	}
	if req.EnrollBeforeDays != nil {
		if *req.EnrollBeforeDays < 0 {
			fieldErrs = append(fieldErrs, apperr.FieldError{Field: "enroll_before_days", Message: "不能为负数"})
		} else {
			settings.EnrollBeforeDays = *req.EnrollBeforeDays
		}
	}
	if req.EnrollAfterDays != nil {
		if *req.EnrollAfterDays < 0 {
			fieldErrs = append(fieldErrs, apperr.FieldError{Field: "enroll_after_days", Message: "不能为负数"})
		} else {
			settings.EnrollAfterDays = *req.EnrollAfterDays
		}
	}
	if req.CourseStartDate != nil {
		if *req.CourseStartDate == "" {
			settings.CourseStartDate = nil
		} else if d, err := ParseDate(*req.CourseStartDate); err != nil {
			fieldErrs = append(fieldErrs, apperr.FieldError{Field: "course_start_date", Message: "日期格式应为 YYYY-MM-DD"})
		} else {
			settings.CourseStartDate = &d
		}
	}
	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}

	if err := s.repo.ShiftSettings.Update(ctx, settings); err != nil {
		s.logger.Error("保存 shift 设置失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, err
	}
	s.cache.InvalidateSettings(ctx, courseKey)

	s.logger.Info("更新 shift 设置",
		zap.String("course_key", courseKey),
		zap.Bool("enabled", settings.IsShiftEnabled),
		zap.Bool("autostart", settings.IsAutostart))

	s.syncShifts(ctx, settings)
	return nil, nil
}

func (s *shiftService) UpdateShifts(ctx context.Context, courseKey string) (int, error) {
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return 0, err
	}
	return s.generator.UpdateShifts(ctx, s.repo, settings, s.today())
}

// syncShifts 读写设置时顺带生成到期的 shift，失败只记录日志
func (s *shiftService) syncShifts(ctx context.Context, settings *model.CourseShiftSettings) {
	created, err := s.generator.UpdateShifts(ctx, s.repo, settings, s.today())
	if err != nil {
		s.logger.Error("生成 shift 失败",
			zap.String("course_key", settings.CourseKey),
			zap.Int("created", created),
			zap.Error(err))
		return
	}
	if created > 0 {
		s.logger.Info("生成 shift", zap.String("course_key", settings.CourseKey), zap.Int("created", created))
	}
}

// ────────────────────── Shifts ──────────────────────

func (s *shiftService) ListShifts(ctx context.Context, courseKey string) ([]dto.ShiftResponse, error) {
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return nil, err
	}
	s.syncShifts(ctx, settings)

	shifts, err := s.repo.ShiftGroup.ListByCourse(ctx, courseKey)
	if err != nil {
		s.logger.Error("列出 shift 失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, err
	}
	return toShiftResponses(shifts), nil
}

func (s *shiftService) GetShift(ctx context.Context, courseKey, name string) (*dto.ShiftResponse, error) {
	shift, err := s.findShift(ctx, courseKey, name)
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift), nil
}

func (s *shiftService) GetShiftDetail(ctx context.Context, courseKey, name string) (*dto.ShiftDetailResponse, error) {
	shift, err := s.findShift(ctx, courseKey, name)
	if err != nil {
		return nil, err
	}
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.ShiftMembership.CountByShift(ctx, shift.ShiftID)
	if err != nil {
		s.logger.Error("统计 shift 人数失败", zap.String("shift", shift.String()), zap.Error(err))
		return nil, err
	}
	return &dto.ShiftDetailResponse{
		ShiftResponse:            *toShiftResponse(shift),
		EnrollmentWindowResponse: *toWindowResponse(shift, settings),
		UsersCount:               count,
	}, nil
}

func (s *shiftService) CreateShift(ctx context.Context, courseKey string, req *dto.CreateShiftRequest) (*dto.ShiftResponse, bool, error) {
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return nil, false, err
	}
	if !settings.IsShiftEnabled {
		return nil, false, ErrShiftsDisabled
	}
	if settings.IsAutostart {
		return nil, false, apperr.NewValidationError("is_autostart", "自动开班模式下不能手动创建 shift")
	}

	start := s.today()
	if req.StartDate != "" {
		d, err := ParseDate(req.StartDate)
		if err != nil {
			return nil, false, apperr.NewValidationError("start_date", "日期格式应为 YYYY-MM-DD")
		}
		start = d
	}
	name := req.Name
	if name == "" {
		name = manualShiftName(courseKey, start)
	}
	days := daysFromCourseStart(settings, start)

	shift, created, err := s.lifecycle.Create(ctx, s.repo, courseKey, name, &start, &days)
	if err != nil {
		return nil, false, err
	}
	return toShiftResponse(shift), created, nil
}

func (s *shiftService) UpdateShift(ctx context.Context, courseKey, name string, req *dto.UpdateShiftRequest) (*dto.ShiftResponse, error) {
	var newDate *time.Time
	if req.NewStartDate != nil {
		d, err := ParseDate(*req.NewStartDate)
		if err != nil {
			return nil, apperr.NewValidationError("new_start_date", "日期格式应为 YYYY-MM-DD")
		}
		newDate = &d
	}

	var updated *model.CourseShiftGroup
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		shift, err := findShiftIn(ctx, txRepo, courseKey, name)
		if err != nil {
			return err
		}
		if req.NewName != nil {
			if err := s.lifecycle.SetName(ctx, txRepo, shift, *req.NewName); err != nil {
				return err
			}
		}
		if newDate != nil {
			if err := s.lifecycle.SetStartDate(ctx, txRepo, shift, *newDate); err != nil {
				return err
			}
		}
		updated = shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toShiftResponse(updated), nil
}

func (s *shiftService) DeleteShift(ctx context.Context, courseKey, name string) error {
	shift, err := s.findShift(ctx, courseKey, name)
	if err != nil {
		return err
	}
	userIDs, err := s.lifecycle.Delete(ctx, s.repo, shift)
	if err != nil {
		return err
	}
	s.cache.InvalidateMembership(ctx, courseKey, userIDs...)
	return nil
}

func (s *shiftService) GetEnrollmentWindow(ctx context.Context, courseKey, name string) (*dto.EnrollmentWindowResponse, error) {
	shift, err := s.findShift(ctx, courseKey, name)
	if err != nil {
		return nil, err
	}
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return nil, err
	}
	return toWindowResponse(shift, settings), nil
}

// ────────────────────── Membership ──────────────────────

func (s *shiftService) GetActiveShifts(ctx context.Context, courseKey, username string) ([]dto.ShiftResponse, error) {
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return nil, err
	}
	if !settings.IsShiftEnabled {
		return []dto.ShiftResponse{}, nil
	}
	s.syncShifts(ctx, settings)

	var threshold *time.Time
	if username != "" {
		user, err := s.findUser(ctx, username)
		if err != nil {
			return nil, err
		}
		if s.cfg.ShiftUpOnly {
			current, err := ignoreNotFound(s.repo.ShiftMembership.GetByUserAndCourse(ctx, user.UserID, courseKey))
			if err != nil {
				return nil, err
			}
			if current != nil && current.Shift != nil {
				start := current.Shift.StartDate
				threshold = &start
			}
		}
	}

	shifts, err := s.repo.ShiftGroup.ListByCourse(ctx, courseKey)
	if err != nil {
		s.logger.Error("列出 shift 失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, err
	}
	return toShiftResponses(ActiveShifts(shifts, settings, s.today(), threshold)), nil
}

func (s *shiftService) GetUserShift(ctx context.Context, courseKey, username string) (*dto.ShiftResponse, error) {
	shift, err := s.userShift(ctx, courseKey, username)
	if err != nil || shift == nil {
		return nil, err
	}
	return toShiftResponse(shift), nil
}

// userShift 用户当前所在 shift，未启用或不在任何 shift 时为 nil
func (s *shiftService) userShift(ctx context.Context, courseKey, username string) (*model.CourseShiftGroup, error) {
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return nil, err
	}
	if !settings.IsShiftEnabled {
		return nil, nil
	}
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if shiftID, ok := s.cache.GetMembership(ctx, courseKey, user.UserID); ok {
		if shiftID == "" {
			return nil, nil
		}
		shift, err := ignoreNotFound(s.repo.ShiftGroup.GetByID(ctx, shiftID))
		if err != nil {
			return nil, err
		}
		if shift != nil {
			return shift, nil
		}
		// shift 已被删除，回源
	}

	// 回源前取版本号，期间的转移会使这次写入作废
	version := s.cache.MembershipVersion(ctx, courseKey, user.UserID)
	membership, err := ignoreNotFound(s.repo.ShiftMembership.GetByUserAndCourse(ctx, user.UserID, courseKey))
	if err != nil {
		s.logger.Error("查询用户 shift 失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	if membership == nil {
		s.cache.SetMembership(ctx, courseKey, user.UserID, "", version)
		return nil, nil
	}
	s.cache.SetMembership(ctx, courseKey, user.UserID, membership.ShiftID, version)
	return membership.Shift, nil
}

func (s *shiftService) EnrollUser(ctx context.Context, courseKey, username, shiftName string, forced bool) error {
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return err
	}
	if !settings.IsShiftEnabled {
		return ErrShiftsDisabled
	}
	s.syncShifts(ctx, settings)

	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}
	var to *model.CourseShiftGroup
	if shiftName != "" {
		if to, err = s.findShift(ctx, courseKey, shiftName); err != nil {
			return err
		}
	}

	// 以读到的当前 shift 作为断言：期间若被并发修改，Transfer 返回 StaleStateError
	current, err := ignoreNotFound(s.repo.ShiftMembership.GetByUserAndCourse(ctx, user.UserID, courseKey))
	if err != nil {
		return err
	}
	var from *model.CourseShiftGroup
	if current != nil {
		from = current.Shift
	}

	_, err = s.transfer.Transfer(ctx, s.repo, &TransferRequest{
		User:        user,
		CourseKey:   courseKey,
		From:        from,
		To:          to,
		Forced:      forced,
		ShiftUpOnly: s.cfg.ShiftUpOnly,
		Today:       s.today(),
	})
	s.cache.InvalidateMembership(ctx, courseKey, user.UserID)
	return err
}

// ────────────────────── Plans ──────────────────────

func (s *shiftService) CreatePlan(ctx context.Context, courseKey string, req *dto.CreateShiftPlanRequest) (*dto.ShiftPlanResponse, bool, error) {
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return nil, false, err
	}
	if !settings.IsShiftEnabled {
		return nil, false, ErrShiftsDisabled
	}
	if settings.IsAutostart {
		return nil, false, apperr.NewValidationError("is_autostart", "自动开班模式下不能登记开班计划")
	}
	start, err := ParseDate(req.StartDate)
	if err != nil {
		return nil, false, apperr.NewValidationError("start_date", "日期格式应为 YYYY-MM-DD")
	}

	plan, created, err := s.repo.ShiftPlan.Create(ctx, &model.CourseShiftPlan{CourseKey: courseKey, StartDate: start})
	if err != nil {
		s.logger.Error("登记开班计划失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, false, err
	}
	if created {
		s.logger.Info("登记开班计划", zap.String("course_key", courseKey), zap.String("start_date", FormatDate(start)))
	}

	// 已到期的计划立即开班
	s.syncShifts(ctx, settings)
	return toPlanResponse(plan, settings), created, nil
}

func (s *shiftService) ListPlans(ctx context.Context, courseKey string) ([]dto.ShiftPlanResponse, error) {
	settings, err := s.loadSettings(ctx, courseKey)
	if err != nil {
		return nil, err
	}
	plans, err := s.repo.ShiftPlan.ListByCourse(ctx, courseKey)
	if err != nil {
		s.logger.Error("列出开班计划失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ShiftPlanResponse, 0, len(plans))
	for i := range plans {
		result = append(result, *toPlanResponse(&plans[i], settings))
	}
	return result, nil
}

func (s *shiftService) DeletePlan(ctx context.Context, courseKey, startDate string) error {
	start, err := ParseDate(startDate)
	if err != nil {
		return apperr.NewValidationError("start_date", "日期格式应为 YYYY-MM-DD")
	}
	plan, err := s.repo.ShiftPlan.GetByCourseAndDate(ctx, courseKey, start)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.NotFoundError{Kind: "plan", Key: startDate, CourseKey: courseKey}
		}
		return err
	}
	if err := s.repo.ShiftPlan.Delete(ctx, plan.PlanID); err != nil {
		s.logger.Error("删除开班计划失败", zap.String("course_key", courseKey), zap.Error(err))
		return err
	}
	s.logger.Info("删除开班计划", zap.String("course_key", courseKey), zap.String("start_date", startDate))
	return nil
}

// ────────────────────── 日期平移 ──────────────────────

func (s *shiftService) GetShiftedDate(ctx context.Context, courseKey, username string, date time.Time) (time.Time, error) {
	shift, err := s.userShift(ctx, courseKey, username)
	if err != nil {
		return time.Time{}, err
	}
	return ShiftDate(shift, date), nil
}

func (s *shiftService) ShiftUserFields(ctx context.Context, courseKey string, req *dto.ShiftFieldsRequest) (*dto.ShiftFieldsResponse, error) {
	shift, err := s.userShift(ctx, courseKey, req.Username)
	if err != nil {
		return nil, err
	}

	toShift := make(map[string]string)
	result := make(map[string]string, len(req.Fields))
	for key, value := range req.Fields {
		if ShouldShiftField(req.Category, key) {
			toShift[key] = value
		} else {
			result[key] = value
		}
	}
	shifted, err := ShiftISOFields(shift, toShift)
	if err != nil {
		return nil, apperr.NewValidationError("fields", err.Error())
	}
	for key, value := range shifted {
		result[key] = value
	}

	resp := &dto.ShiftFieldsResponse{Fields: result}
	if shift != nil {
		resp.ShiftName = shift.Name
	}
	return resp, nil
}

// ── 辅助函数 ──

func (s *shiftService) findShift(ctx context.Context, courseKey, name string) (*model.CourseShiftGroup, error) {
	shift, err := findShiftIn(ctx, s.repo, courseKey, name)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		s.logger.Error("查询 shift 失败", zap.String("course_key", courseKey), zap.String("name", name), zap.Error(err))
	}
	return shift, err
}

func findShiftIn(ctx context.Context, repo *repository.Repository, courseKey, name string) (*model.CourseShiftGroup, error) {
	shift, err := repo.ShiftGroup.GetByName(ctx, courseKey, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Kind: "shift", Key: name, CourseKey: courseKey}
		}
		return nil, err
	}
	return shift, nil
}

func (s *shiftService) findUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Kind: "user", Key: username}
		}
		s.logger.Error("查询用户失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func toShiftSettingsResponse(settings *model.CourseShiftSettings) *dto.ShiftSettingsResponse {
	resp := &dto.ShiftSettingsResponse{
		CourseKey:           settings.CourseKey,
		IsShiftEnabled:      settings.IsShiftEnabled,
		IsAutostart:         settings.IsAutostart,
		AutostartPeriodDays: settings.AutostartPeriodDays,
		EnrollBeforeDays:    settings.EnrollBeforeDays,
		EnrollAfterDays:     settings.EnrollAfterDays,
	}
	if settings.CourseStartDate != nil {
		resp.CourseStartDate = FormatDate(*settings.CourseStartDate)
	}
	return resp
}

func toShiftResponse(shift *model.CourseShiftGroup) *dto.ShiftResponse {
	return &dto.ShiftResponse{
		ID:        shift.ShiftID,
		CourseKey: shift.CourseKey,
		Name:      shift.Name,
		StartDate: FormatDate(shift.StartDate),
		DaysShift: shift.DaysShift,
	}
}

func toShiftResponses(shifts []model.CourseShiftGroup) []dto.ShiftResponse {
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *toShiftResponse(&shifts[i]))
	}
	return result
}

func toWindowResponse(shift *model.CourseShiftGroup, settings *model.CourseShiftSettings) *dto.EnrollmentWindowResponse {
	open, finish := EnrollmentWindow(shift, settings)
	return &dto.EnrollmentWindowResponse{
		EnrollStart:  FormatDate(open),
		EnrollFinish: FormatDate(finish),
	}
}

func toPlanResponse(plan *model.CourseShiftPlan, settings *model.CourseShiftSettings) *dto.ShiftPlanResponse {
	p := StoredPlan{ID: plan.PlanID, StartDate: plan.StartDate}
	return &dto.ShiftPlanResponse{
		ID:         plan.PlanID,
		CourseKey:  plan.CourseKey,
		StartDate:  FormatDate(plan.StartDate),
		LaunchDate: FormatDate(LaunchDate(p, settings)),
	}
}
