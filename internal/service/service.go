package service

import (
	"go.uber.org/zap"

	"course-shifts/config"
	"course-shifts/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Shift  ShiftService
	Export ExportService
	Import ImportService
	User   UserService
}

// NewService 创建 Service 聚合，cache 为 nil 时不使用缓存
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache ShiftCache,
	logger *zap.Logger,
) *Service {
	shift := NewShiftService(&cfg.Shift, repo, cache, logger)
	return &Service{
		Shift:  shift,
		Export: NewExportService(repo, logger),
		Import: NewImportService(repo, shift, logger),
		User:   NewUserService(repo, logger),
	}
}
