package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"course-shifts/internal/model"
)

// ShiftMembershipRepository 用户 shift 归属数据访问接口
type ShiftMembershipRepository interface {
	// GetByUserAndCourse 返回用户在课程中的唯一归属（含 Shift）
	GetByUserAndCourse(ctx context.Context, userID, courseKey string) (*model.CourseShiftMembership, error)
	// Create 违反 (user_id, course_key) 唯一约束时返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, membership *model.CourseShiftMembership) error
	Delete(ctx context.Context, membershipID string) error
	DeleteByShift(ctx context.Context, shiftID string) (int64, error)
	ListByShift(ctx context.Context, shiftID string) ([]model.CourseShiftMembership, error)
	ListByCourse(ctx context.Context, courseKey string) ([]model.CourseShiftMembership, error)
	CountByShift(ctx context.Context, shiftID string) (int64, error)
}

type shiftMembershipRepo struct {
	db *gorm.DB
}

// NewShiftMembershipRepo 创建 ShiftMembershipRepository 实例
func NewShiftMembershipRepo(db *gorm.DB) ShiftMembershipRepository {
	return &shiftMembershipRepo{db: db}
}

func (r *shiftMembershipRepo) GetByUserAndCourse(ctx context.Context, userID, courseKey string) (*model.CourseShiftMembership, error) {
	var m model.CourseShiftMembership
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Where("user_id = ? AND course_key = ?", userID, courseKey).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *shiftMembershipRepo) Create(ctx context.Context, membership *model.CourseShiftMembership) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(membership).Error
}

func (r *shiftMembershipRepo) Delete(ctx context.Context, membershipID string) error {
	return r.db.WithContext(ctx).
		Where("membership_id = ?", membershipID).
		Delete(&model.CourseShiftMembership{}).Error
}

func (r *shiftMembershipRepo) DeleteByShift(ctx context.Context, shiftID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Delete(&model.CourseShiftMembership{})
	return result.RowsAffected, result.Error
}

func (r *shiftMembershipRepo) ListByShift(ctx context.Context, shiftID string) ([]model.CourseShiftMembership, error) {
	var memberships []model.CourseShiftMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&memberships).Error
	return memberships, err
}

func (r *shiftMembershipRepo) ListByCourse(ctx context.Context, courseKey string) ([]model.CourseShiftMembership, error) {
	var memberships []model.CourseShiftMembership
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Shift").
		Where("course_key = ?", courseKey).
		Order("created_at ASC").
		Find(&memberships).Error
	return memberships, err
}

func (r *shiftMembershipRepo) CountByShift(ctx context.Context, shiftID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CourseShiftMembership{}).
		Where("shift_id = ?", shiftID).
		Count(&count).Error
	return count, err
}
