package handler

import "course-shifts/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Shift *ShiftHandler
	User  *UserHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Shift: NewShiftHandler(svc.Shift, svc.Export, svc.Import),
		User:  NewUserHandler(svc.User),
	}
}
