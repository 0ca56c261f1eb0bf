package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"course-shifts/internal/model"
)

// ShiftPlanRepository 计划开班数据访问接口
type ShiftPlanRepository interface {
	// Create 对 (course_key, start_date) 幂等，返回是否新建
	Create(ctx context.Context, plan *model.CourseShiftPlan) (*model.CourseShiftPlan, bool, error)
	GetByCourseAndDate(ctx context.Context, courseKey string, startDate time.Time) (*model.CourseShiftPlan, error)
	// ListByCourse 按 start_date 正序
	ListByCourse(ctx context.Context, courseKey string) ([]model.CourseShiftPlan, error)
	Delete(ctx context.Context, planID string) error
}

type shiftPlanRepo struct {
	db *gorm.DB
}

// NewShiftPlanRepo 创建 ShiftPlanRepository 实例
func NewShiftPlanRepo(db *gorm.DB) ShiftPlanRepository {
	return &shiftPlanRepo{db: db}
}

func (r *shiftPlanRepo) Create(ctx context.Context, plan *model.CourseShiftPlan) (*model.CourseShiftPlan, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_key"}, {Name: "start_date"}},
			DoNothing: true,
		}).
		Create(plan)
	if result.Error != nil {
		return nil, false, result.Error
	}

	stored, err := r.GetByCourseAndDate(ctx, plan.CourseKey, plan.StartDate)
	if err != nil {
		return nil, false, err
	}
	return stored, result.RowsAffected == 1, nil
}

func (r *shiftPlanRepo) GetByCourseAndDate(ctx context.Context, courseKey string, startDate time.Time) (*model.CourseShiftPlan, error) {
	var plan model.CourseShiftPlan
	err := r.db.WithContext(ctx).
		Where("course_key = ? AND start_date = ?", courseKey, startDate.Format(model.DateLayout)).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *shiftPlanRepo) ListByCourse(ctx context.Context, courseKey string) ([]model.CourseShiftPlan, error) {
	var plans []model.CourseShiftPlan
	err := r.db.WithContext(ctx).
		Where("course_key = ?", courseKey).
		Order("start_date ASC").
		Find(&plans).Error
	return plans, err
}

func (r *shiftPlanRepo) Delete(ctx context.Context, planID string) error {
	return r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Delete(&model.CourseShiftPlan{}).Error
}
