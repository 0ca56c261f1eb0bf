package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-shifts/internal/model"
	"course-shifts/internal/repository"
	apperr "course-shifts/pkg/errors"
)

// ── 开班计划 ──
//
// Plan 是待开班的一个日期，两种来源：
//   - StoredPlan：手动模式下管理员登记、存储在 course_shift_plans 中，开班后删除
//   - AutostartPlan：自动模式下按周期推算出的下一次开班，不落库

// Plan 开班计划
type Plan interface {
	PlanStartDate() time.Time
	isPlan()
}

// StoredPlan 已登记的计划
type StoredPlan struct {
	ID        string
	StartDate time.Time
}

// AutostartPlan 自动推算的计划
type AutostartPlan struct {
	StartDate time.Time
}

func (p StoredPlan) PlanStartDate() time.Time {
	return p.StartDate
}

func (p AutostartPlan) PlanStartDate() time.Time {
	return p.StartDate
}

func (StoredPlan) isPlan() {
}

func (AutostartPlan) isPlan() {
}

// LaunchDate 计划的开班日期：报名窗口打开的那天
func LaunchDate(p Plan, settings *model.CourseShiftSettings) time.Time {
	return addDays(dateOnly(p.PlanStartDate()), -settings.EnrollBeforeDays)
}

// isDue launch_date < today
func isDue(p Plan, settings *model.CourseShiftSettings, today time.Time) bool {
	return LaunchDate(p, settings).Before(dateOnly(today))
}

func autoShiftName(courseKey string, start time.Time) string {
	return fmt.Sprintf("auto_shift_%s_%s", courseKey, FormatDate(start))
}

func manualShiftName(courseKey string, start time.Time) string {
	return fmt.Sprintf("shift_%s_%s", courseKey, FormatDate(start))
}

// daysFromCourseStart 以课程开始日期为基准的偏移，未设置开始日期时为 0
func daysFromCourseStart(settings *model.CourseShiftSettings, start time.Time) int {
	if settings.CourseStartDate == nil {
		return 0
	}
	return daysBetween(*settings.CourseStartDate, start)
}

// shiftGenerator 根据设置生成到期的 shift
type shiftGenerator struct {
	lifecycle *shiftLifecycle
	logger    *zap.Logger
}

func newShiftGenerator(lifecycle *shiftLifecycle, logger *zap.Logger) *shiftGenerator {
	return &shiftGenerator{lifecycle: lifecycle, logger: logger}
}

// nextPlan 返回下一个已到期的计划，没有则返回 nil
func (g *shiftGenerator) nextPlan(ctx context.Context, repo *repository.Repository, settings *model.CourseShiftSettings, today time.Time) (Plan, error) {
	if !settings.IsShiftEnabled {
		return nil, nil
	}

	var plan Plan
	if settings.IsAutostart {
		latest, err := ignoreNotFound(repo.ShiftGroup.GetLatest(ctx, settings.CourseKey))
		if err != nil {
			return nil, err
		}
		switch {
		case latest != nil:
			plan = AutostartPlan{StartDate: addDays(dateOnly(latest.StartDate), settings.AutostartPeriodDays)}
		case settings.CourseStartDate != nil:
			plan = AutostartPlan{StartDate: dateOnly(*settings.CourseStartDate)}
		default:
			g.logger.Warn("自动开班需要课程开始日期，已跳过", zap.String("course_key", settings.CourseKey))
			return nil, nil
		}
	} else {
		plans, err := repo.ShiftPlan.ListByCourse(ctx, settings.CourseKey)
		if err != nil {
			return nil, err
		}
		if len(plans) == 0 {
			return nil, nil
		}
		plan = StoredPlan{ID: plans[0].PlanID, StartDate: dateOnly(plans[0].StartDate)}
	}

	if !isDue(plan, settings, today) {
		return nil, nil
	}
	return plan, nil
}

// UpdateShifts 依次开出所有到期的计划，返回新建的 shift 数量
//
// 每个 shift 独立提交：中途失败时之前已创建的 shift 保留，下次调用从断点继续。
func (g *shiftGenerator) UpdateShifts(ctx context.Context, repo *repository.Repository, settings *model.CourseShiftSettings, today time.Time) (int, error) {
	if settings.IsAutostart && settings.AutostartPeriodDays <= 0 {
		return 0, apperr.NewValidationError("autostart_period_days", "必须为正数")
	}

	created := 0
	for {
		plan, err := g.nextPlan(ctx, repo, settings, today)
		if err != nil {
			return created, err
		}
		if plan == nil {
			return created, nil
		}

		ok, err := g.launch(ctx, repo, settings, plan)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
}

func (g *shiftGenerator) launch(ctx context.Context, repo *repository.Repository, settings *model.CourseShiftSettings, plan Plan) (bool, error) {
	start := plan.PlanStartDate()
	days := daysFromCourseStart(settings, start)

	switch p := plan.(type) {
	case AutostartPlan:
		_, created, err := g.lifecycle.Create(ctx, repo, settings.CourseKey, autoShiftName(settings.CourseKey, start), &start, &days)
		if err != nil {
			return false, err
		}
		return created, nil

	case StoredPlan:
		var created bool
		err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
			var err error
			_, created, err = g.lifecycle.Create(ctx, txRepo, settings.CourseKey, manualShiftName(settings.CourseKey, start), &start, &days)
			if err != nil {
				if !errors.Is(err, apperr.ErrConflict) {
					return err
				}
				// 日期已被其他 shift 占用：计划视为已执行
				g.logger.Warn("计划开班与已有 shift 冲突，计划已作废",
					zap.String("course_key", settings.CourseKey),
					zap.String("start_date", FormatDate(start)),
					zap.Error(err))
			}
			if err := txRepo.ShiftPlan.Delete(ctx, p.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return nil
		})
		if err != nil {
			g.logger.Error("执行开班计划失败",
				zap.String("course_key", settings.CourseKey),
				zap.String("start_date", FormatDate(start)),
				zap.Error(err))
			return false, err
		}
		g.logger.Info("执行开班计划",
			zap.String("course_key", settings.CourseKey),
			zap.String("start_date", FormatDate(start)),
			zap.Bool("created", created))
		return created, nil

	default:
		return false, fmt.Errorf("未知的计划类型 %T", plan)
	}
}
