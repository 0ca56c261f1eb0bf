package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"course-shifts/internal/dto"
	"course-shifts/internal/service"
	"course-shifts/pkg/response"
)

// ShiftHandler 课程 shift 模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc  service.ShiftService
	exportSvc service.ExportService
	importSvc service.ImportService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService, exportSvc service.ExportService, importSvc service.ImportService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc, exportSvc: exportSvc, importSvc: importSvc}
}

// ────────────────────── 设置 ──────────────────────

// GetSettings 获取课程 shift 设置（首次访问时按默认值创建）
// GET /api/v1/courses/:course_key/shift-settings
func (h *ShiftHandler) GetSettings(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	settings, err := h.shiftSvc.GetSettings(c.Request.Context(), courseKey)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, settings)
}

// UpdateSettings 部分更新课程 shift 设置
// PUT /api/v1/courses/:course_key/shift-settings
func (h *ShiftHandler) UpdateSettings(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	var req dto.UpdateShiftSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	fieldErrs, err := h.shiftSvc.UpdateSettings(c.Request.Context(), courseKey, &req)
	if err != nil {
		handleShiftError(c, err)
		return
	}
	if len(fieldErrs) > 0 {
		response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, "参数校验失败", fieldErrs)
		return
	}

	settings, err := h.shiftSvc.GetSettings(c.Request.Context(), courseKey)
	if err != nil {
		handleShiftError(c, err)
		return
	}
	response.OK(c, settings)
}

// ────────────────────── shift ──────────────────────

// ListShifts 列出课程全部 shift（开始日期倒序）
// GET /api/v1/courses/:course_key/shifts
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	if c.Query("active") == "true" {
		shifts, err := h.shiftSvc.GetActiveShifts(c.Request.Context(), courseKey, c.Query("username"))
		if err != nil {
			handleShiftError(c, err)
			return
		}
		response.OK(c, gin.H{"list": shifts})
		return
	}

	shifts, err := h.shiftSvc.ListShifts(c.Request.Context(), courseKey)
	if err != nil {
		handleShiftError(c, err)
		return
	}
	response.OK(c, gin.H{"list": shifts})
}

// GetShift 获取 shift 详情
// GET /api/v1/courses/:course_key/shifts/:name
func (h *ShiftHandler) GetShift(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	detail, err := h.shiftSvc.GetShiftDetail(c.Request.Context(), courseKey, c.Param("name"))
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, detail)
}

// CreateShift 手动创建 shift；同名同日期的 shift 已存在时返回 200 与已有 shift
// POST /api/v1/courses/:course_key/shifts
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, created, err := h.shiftSvc.CreateShift(c.Request.Context(), courseKey, &req)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	if created {
		response.Created(c, shift)
		return
	}
	response.OK(c, shift)
}

// UpdateShift 修改 shift 名称或开始日期
// PATCH /api/v1/courses/:course_key/shifts/:name
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, err := h.shiftSvc.UpdateShift(c.Request.Context(), courseKey, c.Param("name"), &req)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// DeleteShift 删除 shift 及其全部成员关系
// DELETE /api/v1/courses/:course_key/shifts/:name
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	if err := h.shiftSvc.DeleteShift(c.Request.Context(), courseKey, c.Param("name")); err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, nil)
}

// UpdateShifts 按当前设置补齐到期的 shift
// POST /api/v1/courses/:course_key/shifts/update
func (h *ShiftHandler) UpdateShifts(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	created, err := h.shiftSvc.UpdateShifts(c.Request.Context(), courseKey)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, dto.UpdateShiftsResponse{Created: created})
}

// ────────────────────── 开班计划 ──────────────────────

// ListPlans 列出待执行的开班计划
// GET /api/v1/courses/:course_key/shift-plans
func (h *ShiftHandler) ListPlans(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	plans, err := h.shiftSvc.ListPlans(c.Request.Context(), courseKey)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{"list": plans})
}

// CreatePlan 新增开班计划
// POST /api/v1/courses/:course_key/shift-plans
func (h *ShiftHandler) CreatePlan(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	var req dto.CreateShiftPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	plan, created, err := h.shiftSvc.CreatePlan(c.Request.Context(), courseKey, &req)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	if created {
		response.Created(c, plan)
		return
	}
	response.OK(c, plan)
}

// DeletePlan 删除开班计划
// DELETE /api/v1/courses/:course_key/shift-plans/:date
func (h *ShiftHandler) DeletePlan(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	if err := h.shiftSvc.DeletePlan(c.Request.Context(), courseKey, c.Param("date")); err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 成员 ──────────────────────

// GetMembership 查询用户当前所在 shift，未加入时 shift 为 null
// GET /api/v1/courses/:course_key/shift-membership?username=xxx
func (h *ShiftHandler) GetMembership(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}
	username := c.Query("username")
	if username == "" {
		response.BadRequest(c, 10001, "username 不能为空")
		return
	}

	shift, err := h.shiftSvc.GetUserShift(c.Request.Context(), courseKey, username)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{"username": username, "shift": shift})
}

// EnrollUser 将用户转入指定 shift，shift_name 为空表示移出
// forced 省略时默认为 true（管理端操作）
// POST /api/v1/courses/:course_key/shift-membership
func (h *ShiftHandler) EnrollUser(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	var req dto.EnrollUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	forced := true
	if req.Forced != nil {
		forced = *req.Forced
	}

	ctx := c.Request.Context()
	if err := h.shiftSvc.EnrollUser(ctx, courseKey, req.Username, req.ShiftName, forced); err != nil {
		handleShiftError(c, err)
		return
	}

	shift, err := h.shiftSvc.GetUserShift(ctx, courseKey, req.Username)
	if err != nil {
		handleShiftError(c, err)
		return
	}
	response.OK(c, gin.H{"username": req.Username, "shift": shift})
}

// SelfEnrollRequest 学员自助切换 shift
type SelfEnrollRequest struct {
	ShiftName string `json:"shift_name" binding:"required"`
}

// GetMyShift 当前登录用户所在 shift 及可切换的 shift
// GET /api/v1/courses/:course_key/my-shift
func (h *ShiftHandler) GetMyShift(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	shift, err := h.shiftSvc.GetUserShift(ctx, courseKey, username)
	if err != nil {
		handleShiftError(c, err)
		return
	}
	active, err := h.shiftSvc.GetActiveShifts(ctx, courseKey, username)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{"shift": shift, "active": active})
}

// EnrollMe 学员自助切换到可报名的 shift（非强制，受报名窗口约束）
// POST /api/v1/courses/:course_key/my-shift
func (h *ShiftHandler) EnrollMe(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req SelfEnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ctx := c.Request.Context()
	if err := h.shiftSvc.EnrollUser(ctx, courseKey, username, req.ShiftName, false); err != nil {
		handleShiftError(c, err)
		return
	}

	shift, err := h.shiftSvc.GetUserShift(ctx, courseKey, username)
	if err != nil {
		handleShiftError(c, err)
		return
	}
	response.OK(c, gin.H{"shift": shift})
}

// ImportTransfers 通过 Excel 批量转入
// POST /api/v1/courses/:course_key/shift-membership/import
func (h *ShiftHandler) ImportTransfers(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, codeImportInvalid, "请上传 Excel 文件")
		return
	}
	defer file.Close()

	resp, err := h.importSvc.ImportTransfers(c.Request.Context(), courseKey, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImportFileInvalid), errors.Is(err, service.ErrImportNoColumns):
			response.BadRequest(c, codeImportInvalid, err.Error())
		case errors.Is(err, service.ErrImportRowsInvalid):
			response.ErrorWithDetails(c, http.StatusBadRequest, codeImportInvalid, err.Error(), resp)
		case errors.Is(err, service.ErrImportPartial):
			response.ErrorWithDetails(c, http.StatusBadRequest, codeImportPartial, err.Error(), resp)
		default:
			handleShiftError(c, err)
		}
		return
	}

	response.OK(c, resp)
}

// ────────────────────── 日期平移 ──────────────────────

// ShiftedDateRequest 查询单个日期对用户的平移结果
type ShiftedDateRequest struct {
	Username string `json:"username" binding:"required"`
	Date     string `json:"date"     binding:"required"`
}

// GetShiftedDate 将课程日期按用户所在 shift 平移
// POST /api/v1/courses/:course_key/shifted-dates
func (h *ShiftHandler) GetShiftedDate(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	var req ShiftedDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	date, err := service.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(c, 10001, "date 格式应为 YYYY-MM-DD")
		return
	}

	shifted, err := h.shiftSvc.GetShiftedDate(c.Request.Context(), courseKey, req.Username, date)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, gin.H{
		"date":         req.Date,
		"shifted_date": service.FormatDate(shifted),
	})
}

// ShiftFields 按用户所在 shift 平移一组 iso8601 日期字段
// POST /api/v1/courses/:course_key/shifted-dates/fields
func (h *ShiftHandler) ShiftFields(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	var req dto.ShiftFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.shiftSvc.ShiftUserFields(c.Request.Context(), courseKey, &req)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, resp)
}

// ────────────────────── 导出 ──────────────────────

// ExportRoster 导出 shift 名单（Excel）
// GET /api/v1/courses/:course_key/shifts/export
func (h *ShiftHandler) ExportRoster(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), courseKey)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	attachment(c, filename, contentType)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// ExportCalendar 导出报名窗口日历（ICS）
// GET /api/v1/courses/:course_key/shifts/calendar
func (h *ShiftHandler) ExportCalendar(c *gin.Context) {
	courseKey, ok := MustGetCourseKey(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), courseKey)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	const contentType = "text/calendar; charset=utf-8"
	attachment(c, filename, contentType)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// attachment 设置下载响应头
func attachment(c *gin.Context, filename, contentType string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Header("Content-Type", contentType)
}
