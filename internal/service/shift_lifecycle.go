package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-shifts/internal/model"
	"course-shifts/internal/repository"
	apperr "course-shifts/pkg/errors"
)

// shiftLifecycle 负责 shift 的创建、改名、改期与删除
//
// 所有方法接收 repo 参数而不是持有固定的 Repository，
// 以便在调用方的事务（txRepo）中执行。
type shiftLifecycle struct {
	logger *zap.Logger
	today  func() time.Time
}

func newShiftLifecycle(logger *zap.Logger, today func() time.Time) *shiftLifecycle {
	return &shiftLifecycle{logger: logger, today: today}
}

// ────────────────────── Create ──────────────────────

// Create 创建 shift；startDate 为空时取今天，daysShift 为空时取 0
//
// (course_key, name, start_date) 完全一致的 shift 已存在时原样返回，created=false。
// 日期被其他名称占用、或名称被其他日期占用时返回 ConflictError。
func (l *shiftLifecycle) Create(
	ctx context.Context,
	repo *repository.Repository,
	courseKey, name string,
	startDate *time.Time,
	daysShift *int,
) (*model.CourseShiftGroup, bool, error) {
	start := l.today()
	if startDate != nil {
		start = dateOnly(*startDate)
	}
	days := 0
	if daysShift != nil {
		days = *daysShift
	}

	existing, err := l.checkCreate(ctx, repo, courseKey, name, start)
	if err != nil || existing != nil {
		return existing, false, err
	}

	shift := &model.CourseShiftGroup{
		CourseKey: courseKey,
		Name:      name,
		StartDate: start,
		DaysShift: days,
	}

	// 嵌套在外层事务中时为 SAVEPOINT，唯一约束冲突只回滚这一次插入
	err = repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return txRepo.ShiftGroup.Create(ctx, shift)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发创建：重读后按同样规则判定
			existing, cerr := l.checkCreate(ctx, repo, courseKey, name, start)
			if cerr != nil {
				return nil, false, cerr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		l.logger.Error("创建 shift 失败",
			zap.String("course_key", courseKey), zap.String("name", name), zap.Error(err))
		return nil, false, err
	}

	l.logger.Info("创建 shift",
		zap.String("course_key", courseKey),
		zap.String("name", name),
		zap.String("start_date", FormatDate(start)),
		zap.Int("days_shift", days),
	)
	return shift, true, nil
}

// checkCreate 返回可复用的已有 shift，或冲突错误，或 (nil, nil) 表示可以插入
func (l *shiftLifecycle) checkCreate(
	ctx context.Context,
	repo *repository.Repository,
	courseKey, name string,
	start time.Time,
) (*model.CourseShiftGroup, error) {
	byName, err := ignoreNotFound(repo.ShiftGroup.GetByName(ctx, courseKey, name))
	if err != nil {
		return nil, err
	}
	if byName != nil && dateOnly(byName.StartDate).Equal(start) {
		return byName, nil
	}

	byDate, err := ignoreNotFound(repo.ShiftGroup.GetByStartDate(ctx, courseKey, start))
	if err != nil {
		return nil, err
	}
	if byDate != nil {
		return nil, &apperr.ConflictError{CourseKey: courseKey, Field: "start_date", Value: FormatDate(start)}
	}
	if byName != nil {
		return nil, &apperr.ConflictError{CourseKey: courseKey, Field: "name", Value: name}
	}
	return nil, nil
}

// ────────────────────── SetName / SetStartDate ──────────────────────

// SetName 修改名称，名称被同课程其他 shift 占用时返回 ConflictError
func (l *shiftLifecycle) SetName(ctx context.Context, repo *repository.Repository, shift *model.CourseShiftGroup, newName string) error {
	if newName == shift.Name {
		return nil
	}
	other, err := ignoreNotFound(repo.ShiftGroup.GetByName(ctx, shift.CourseKey, newName))
	if err != nil {
		return err
	}
	if other != nil && other.ShiftID != shift.ShiftID {
		return &apperr.ConflictError{CourseKey: shift.CourseKey, Field: "name", Value: newName}
	}

	oldName := shift.Name
	shift.Name = newName
	if err := repo.ShiftGroup.Update(ctx, shift); err != nil {
		shift.Name = oldName
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &apperr.ConflictError{CourseKey: shift.CourseKey, Field: "name", Value: newName}
		}
		return err
	}

	l.logger.Info("shift 改名",
		zap.String("course_key", shift.CourseKey),
		zap.String("from", oldName),
		zap.String("to", newName),
	)
	return nil
}

// SetStartDate 修改开始日期，days_shift 随日期差同步调整
func (l *shiftLifecycle) SetStartDate(ctx context.Context, repo *repository.Repository, shift *model.CourseShiftGroup, newDate time.Time) error {
	newDate = dateOnly(newDate)
	oldDate := dateOnly(shift.StartDate)
	if newDate.Equal(oldDate) {
		return nil
	}
	other, err := ignoreNotFound(repo.ShiftGroup.GetByStartDate(ctx, shift.CourseKey, newDate))
	if err != nil {
		return err
	}
	if other != nil && other.ShiftID != shift.ShiftID {
		return &apperr.ConflictError{CourseKey: shift.CourseKey, Field: "start_date", Value: FormatDate(newDate)}
	}

	delta := daysBetween(oldDate, newDate)
	shift.StartDate = newDate
	shift.DaysShift += delta
	if err := repo.ShiftGroup.Update(ctx, shift); err != nil {
		shift.StartDate = oldDate
		shift.DaysShift -= delta
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &apperr.ConflictError{CourseKey: shift.CourseKey, Field: "start_date", Value: FormatDate(newDate)}
		}
		return err
	}

	l.logger.Info("shift 改期",
		zap.String("course_key", shift.CourseKey),
		zap.String("name", shift.Name),
		zap.String("from", FormatDate(oldDate)),
		zap.String("to", FormatDate(newDate)),
		zap.Int("days_shift", shift.DaysShift),
	)
	return nil
}

// ────────────────────── Delete ──────────────────────

// Delete 在同一事务中删除 shift 及其全部 membership，返回被移出的用户 ID
func (l *shiftLifecycle) Delete(ctx context.Context, repo *repository.Repository, shift *model.CourseShiftGroup) ([]string, error) {
	var userIDs []string
	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		members, err := txRepo.ShiftMembership.ListByShift(ctx, shift.ShiftID)
		if err != nil {
			return err
		}
		for _, m := range members {
			userIDs = append(userIDs, m.UserID)
		}
		if _, err := txRepo.ShiftMembership.DeleteByShift(ctx, shift.ShiftID); err != nil {
			return err
		}
		return txRepo.ShiftGroup.Delete(ctx, shift.ShiftID)
	})
	if err != nil {
		l.logger.Error("删除 shift 失败", zap.String("shift", shift.String()), zap.Error(err))
		return nil, err
	}

	l.logger.Info("删除 shift",
		zap.String("course_key", shift.CourseKey),
		zap.String("name", shift.Name),
		zap.Int("unenrolled", len(userIDs)),
	)
	return userIDs, nil
}

// ignoreNotFound 把 gorm.ErrRecordNotFound 转为 (nil, nil)
func ignoreNotFound[T any](v *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}
