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

// 并发转入同一用户时唯一约束冲突的重试次数
const transferMaxAttempts = 3

// TransferRequest 一次 shift 转移
//
// From / To 为 nil 表示“不在任何 shift”。
// Forced 跳过状态断言与报名资格校验（管理员操作）。
type TransferRequest struct {
	User        *model.User
	CourseKey   string
	From        *model.CourseShiftGroup
	To          *model.CourseShiftGroup
	Forced      bool
	ShiftUpOnly bool
	Today       time.Time
}

type membershipTransfer struct {
	logger *zap.Logger
}

func newMembershipTransfer(logger *zap.Logger) *membershipTransfer {
	return &membershipTransfer{logger: logger}
}

// Transfer 原子地把用户从 From 移到 To，返回新的 membership（退出时为 nil）
func (t *membershipTransfer) Transfer(ctx context.Context, repo *repository.Repository, req *TransferRequest) (*model.CourseShiftMembership, error) {
	var (
		result *model.CourseShiftMembership
		err    error
	)
	for attempt := 1; attempt <= transferMaxAttempts; attempt++ {
		err = repo.Transaction(ctx, func(txRepo *repository.Repository) error {
			var txErr error
			result, txErr = t.transfer(ctx, txRepo, req)
			return txErr
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		t.logger.Warn("shift 转移并发冲突，重试",
			zap.String("user_id", req.User.UserID),
			zap.String("course_key", req.CourseKey),
			zap.Int("attempt", attempt))
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, t.staleAfterRetries(ctx, repo, req)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// staleAfterRetries 重试耗尽后仍冲突：归属一直在被并发修改
func (t *membershipTransfer) staleAfterRetries(ctx context.Context, repo *repository.Repository, req *TransferRequest) error {
	asserted := ""
	if req.From != nil {
		asserted = req.From.Name
	}
	current, err := ignoreNotFound(repo.ShiftMembership.GetByUserAndCourse(ctx, req.User.UserID, req.CourseKey))
	if err != nil {
		return err
	}
	t.logger.Warn("shift 转移重试耗尽",
		zap.String("user_id", req.User.UserID),
		zap.String("course_key", req.CourseKey),
		zap.String("current", membershipShiftName(current)))
	return &apperr.StaleStateError{
		Username: req.User.Username,
		Current:  membershipShiftName(current),
		Asserted: asserted,
	}
}

func (t *membershipTransfer) transfer(ctx context.Context, repo *repository.Repository, req *TransferRequest) (*model.CourseShiftMembership, error) {
	// 1. 读取当前归属
	current, err := ignoreNotFound(repo.ShiftMembership.GetByUserAndCourse(ctx, req.User.UserID, req.CourseKey))
	if err != nil {
		return nil, err
	}

	currentID, toID, fromID := "", "", ""
	if current != nil {
		currentID = current.ShiftID
	}
	if req.To != nil {
		toID = req.To.ShiftID
	}
	if req.From != nil {
		fromID = req.From.ShiftID
	}

	// 2. 目标即当前：不做任何修改
	if currentID == toID {
		return current, nil
	}

	// 3. 课程一致性
	if req.To != nil && req.To.CourseKey != req.CourseKey {
		return nil, &apperr.CourseMismatchError{Expected: req.CourseKey, Actual: req.To.CourseKey, Shift: req.To.Name}
	}
	if req.From != nil && req.From.CourseKey != req.CourseKey {
		return nil, &apperr.CourseMismatchError{Expected: req.CourseKey, Actual: req.From.CourseKey, Shift: req.From.Name}
	}

	// 4. 调用方断言的当前 shift 必须与实际一致
	if !req.Forced && fromID != currentID {
		asserted := ""
		if req.From != nil {
			asserted = req.From.Name
		}
		return nil, &apperr.StaleStateError{
			Username: req.User.Username,
			Current:  membershipShiftName(current),
			Asserted: asserted,
		}
	}

	// 5. 报名资格（退出不校验）
	if req.To != nil && !req.Forced {
		active, err := t.activeFor(ctx, repo, req, current)
		if err != nil {
			return nil, err
		}
		if !containsShift(active, req.To.ShiftID) {
			return nil, &apperr.NotEligibleError{Shift: req.To.Name, Active: shiftNames(active)}
		}
	}

	// 6. 先删后建，二者在同一事务中
	if current != nil {
		if err := repo.ShiftMembership.Delete(ctx, current.MembershipID); err != nil {
			return nil, err
		}
		t.logger.Info("用户退出 shift",
			zap.String("username", req.User.Username),
			zap.String("course_key", req.CourseKey),
			zap.String("shift", membershipShiftName(current)))
	}
	if req.To == nil {
		return nil, nil
	}

	membership := &model.CourseShiftMembership{
		UserID:    req.User.UserID,
		ShiftID:   req.To.ShiftID,
		CourseKey: req.CourseKey,
	}
	if err := repo.ShiftMembership.Create(ctx, membership); err != nil {
		return nil, err
	}
	membership.Shift = req.To
	membership.User = req.User

	t.logger.Info("用户加入 shift",
		zap.String("username", req.User.Username),
		zap.String("course_key", req.CourseKey),
		zap.String("shift", req.To.Name),
		zap.Bool("forced", req.Forced))
	return membership, nil
}

func (t *membershipTransfer) activeFor(ctx context.Context, repo *repository.Repository, req *TransferRequest, current *model.CourseShiftMembership) ([]model.CourseShiftGroup, error) {
	settings, err := repo.ShiftSettings.GetByCourse(ctx, req.CourseKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Kind: "settings", Key: req.CourseKey}
		}
		return nil, err
	}
	shifts, err := repo.ShiftGroup.ListByCourse(ctx, req.CourseKey)
	if err != nil {
		return nil, err
	}

	var threshold *time.Time
	if req.ShiftUpOnly && current != nil && current.Shift != nil {
		start := current.Shift.StartDate
		threshold = &start
	}
	return ActiveShifts(shifts, settings, req.Today, threshold), nil
}

func membershipShiftName(m *model.CourseShiftMembership) string {
	if m == nil {
		return ""
	}
	if m.Shift != nil {
		return m.Shift.Name
	}
	return m.ShiftID
}
