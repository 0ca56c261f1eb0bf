package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"course-shifts/internal/model"
)

// ShiftGroupRepository 课程 shift 数据访问接口
type ShiftGroupRepository interface {
	Create(ctx context.Context, shift *model.CourseShiftGroup) error
	GetByID(ctx context.Context, id string) (*model.CourseShiftGroup, error)
	GetByName(ctx context.Context, courseKey, name string) (*model.CourseShiftGroup, error)
	GetByStartDate(ctx context.Context, courseKey string, startDate time.Time) (*model.CourseShiftGroup, error)
	// GetLatest 返回课程中开始日期最晚的 shift
	GetLatest(ctx context.Context, courseKey string) (*model.CourseShiftGroup, error)
	// ListByCourse 按 start_date 倒序、name 正序
	ListByCourse(ctx context.Context, courseKey string) ([]model.CourseShiftGroup, error)
	Update(ctx context.Context, shift *model.CourseShiftGroup) error
	Delete(ctx context.Context, id string) error
}

type shiftGroupRepo struct {
	db *gorm.DB
}

// NewShiftGroupRepo 创建 ShiftGroupRepository 实例
func NewShiftGroupRepo(db *gorm.DB) ShiftGroupRepository {
	return &shiftGroupRepo{db: db}
}

func (r *shiftGroupRepo) Create(ctx context.Context, shift *model.CourseShiftGroup) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftGroupRepo) GetByID(ctx context.Context, id string) (*model.CourseShiftGroup, error) {
	var shift model.CourseShiftGroup
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftGroupRepo) GetByName(ctx context.Context, courseKey, name string) (*model.CourseShiftGroup, error) {
	var shift model.CourseShiftGroup
	err := r.db.WithContext(ctx).
		Where("course_key = ? AND name = ?", courseKey, name).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftGroupRepo) GetByStartDate(ctx context.Context, courseKey string, startDate time.Time) (*model.CourseShiftGroup, error) {
	var shift model.CourseShiftGroup
	err := r.db.WithContext(ctx).
		Where("course_key = ? AND start_date = ?", courseKey, startDate.Format(model.DateLayout)).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftGroupRepo) GetLatest(ctx context.Context, courseKey string) (*model.CourseShiftGroup, error) {
	var shift model.CourseShiftGroup
	err := r.db.WithContext(ctx).
		Where("course_key = ?", courseKey).
		Order("start_date DESC").
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftGroupRepo) ListByCourse(ctx context.Context, courseKey string) ([]model.CourseShiftGroup, error) {
	var shifts []model.CourseShiftGroup
	err := r.db.WithContext(ctx).
		Where("course_key = ?", courseKey).
		Order("start_date DESC").
		Order("name ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftGroupRepo) Update(ctx context.Context, shift *model.CourseShiftGroup) error {
	return r.db.WithContext(ctx).
		Model(&model.CourseShiftGroup{}).
		Where("shift_id = ?", shift.ShiftID).
		Updates(map[string]interface{}{
			"name":       shift.Name,
			"start_date": shift.StartDate.Format(model.DateLayout),
			"days_shift": shift.DaysShift,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

// Delete 删除 shift，数据库外键会级联删除其 membership
func (r *shiftGroupRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("shift_id = ?", id).
		Delete(&model.CourseShiftGroup{}).Error
}
