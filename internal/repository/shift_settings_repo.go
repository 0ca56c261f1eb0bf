package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"course-shifts/internal/model"
)

// ShiftSettingsRepository 课程 shift 设置数据访问接口
type ShiftSettingsRepository interface {
	GetByCourse(ctx context.Context, courseKey string) (*model.CourseShiftSettings, error)
	// GetOrCreate 不存在时以 defaults 插入；并发插入时只有一方成功，另一方重读
	GetOrCreate(ctx context.Context, defaults *model.CourseShiftSettings) (*model.CourseShiftSettings, bool, error)
	Update(ctx context.Context, settings *model.CourseShiftSettings) error
}

type shiftSettingsRepo struct {
	db *gorm.DB
}

// NewShiftSettingsRepo 创建 ShiftSettingsRepository 实例
func NewShiftSettingsRepo(db *gorm.DB) ShiftSettingsRepository {
	return &shiftSettingsRepo{db: db}
}

func (r *shiftSettingsRepo) GetByCourse(ctx context.Context, courseKey string) (*model.CourseShiftSettings, error) {
	var settings model.CourseShiftSettings
	err := r.db.WithContext(ctx).
		Where("course_key = ?", courseKey).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *shiftSettingsRepo) GetOrCreate(ctx context.Context, defaults *model.CourseShiftSettings) (*model.CourseShiftSettings, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_key"}},
			DoNothing: true,
		}).
		Create(defaults)
	if result.Error != nil {
		return nil, false, result.Error
	}

	settings, err := r.GetByCourse(ctx, defaults.CourseKey)
	if err != nil {
		return nil, false, err
	}
	return settings, result.RowsAffected == 1, nil
}

func (r *shiftSettingsRepo) Update(ctx context.Context, settings *model.CourseShiftSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
