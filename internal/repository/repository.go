package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User            UserRepository
	ShiftSettings   ShiftSettingsRepository
	ShiftGroup      ShiftGroupRepository
	ShiftMembership ShiftMembershipRepository
	ShiftPlan       ShiftPlanRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		User:            NewUserRepo(db),
		ShiftSettings:   NewShiftSettingsRepo(db),
		ShiftGroup:      NewShiftGroupRepo(db),
		ShiftMembership: NewShiftMembershipRepo(db),
		ShiftPlan:       NewShiftPlanRepo(db),
	}
}

// Transaction 在单个数据库事务中执行 fn，fn 内必须使用传入的 txRepo
// fn 返回错误或 panic 时整体回滚。
// 未绑定数据库的聚合（单元测试中手工组装的 mock）直接以自身执行 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
