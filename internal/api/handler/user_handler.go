package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"course-shifts/internal/dto"
	"course-shifts/internal/service"
	apperr "course-shifts/pkg/errors"
	"course-shifts/pkg/response"
)

// UserHandler 用户同步 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetUser 按 username 查询用户
// GET /api/v1/users/:username
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// SyncUser LMS 推送单个用户
// PUT /api/v1/users
func (h *UserHandler) SyncUser(c *gin.Context) {
	var req dto.SyncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, created, err := h.userSvc.SyncUser(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	if created {
		response.Created(c, user)
		return
	}
	response.OK(c, user)
}

// ImportUsers 通过 Excel 批量同步用户
// POST /api/v1/users/import
func (h *UserHandler) ImportUsers(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 21002, "请上传 Excel 文件")
		return
	}
	defer file.Close()

	rows, err := h.userSvc.ParseImportFile(file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserImportNoData),
			errors.Is(err, service.ErrUserImportTooMany),
			errors.Is(err, service.ErrUserImportBadHeader):
			response.BadRequest(c, 21002, err.Error())
		default:
			response.BadRequest(c, 21002, "无法解析 Excel 文件")
		}
		return
	}

	resp, err := h.userSvc.ImportUsers(c.Request.Context(), rows)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, resp)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		response.NotFound(c, 21001, err.Error())
	default:
		response.InternalError(c)
	}
}
