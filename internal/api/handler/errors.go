package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-shifts/internal/service"
	apperr "course-shifts/pkg/errors"
	"course-shifts/pkg/response"
)

// ── shift 模块错误码 ──

const (
	codeShiftNotFound     = 20001
	codeShiftConflict     = 20002
	codeStaleState        = 20003
	codeNotEligible       = 20004
	codeCourseMismatch    = 20005
	codeValidation        = 20006
	codeShiftsDisabled    = 20007
	codeImportInvalid     = 20008
	codeImportPartial     = 20009
	codeExportNoShifts    = 20010
	codeUserNotFound      = 20011
	codePlanNotFound      = 20012
	codeSettingsNotFound  = 20013
	codeExportGenerateErr = 20014
)

// handleShiftError 统一处理 shift 模块业务错误
// 领域错误自带课程、shift 名称等上下文，直接作为 message 返回
func handleShiftError(c *gin.Context, err error) {
	var (
		notFound   *apperr.NotFoundError
		validation *apperr.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		code := codeShiftNotFound
		switch notFound.Kind {
		case "user":
			code = codeUserNotFound
		case "plan":
			code = codePlanNotFound
		case "settings":
			code = codeSettingsNotFound
		}
		response.NotFound(c, code, err.Error())
	case errors.As(err, &validation):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, "参数校验失败", validation.Fields)
	case errors.Is(err, apperr.ErrConflict):
		response.Conflict(c, codeShiftConflict, err.Error())
	case errors.Is(err, apperr.ErrStaleState):
		response.BadRequest(c, codeStaleState, err.Error())
	case errors.Is(err, apperr.ErrNotEligible):
		response.BadRequest(c, codeNotEligible, err.Error())
	case errors.Is(err, apperr.ErrCourseMismatch):
		response.BadRequest(c, codeCourseMismatch, err.Error())
	case errors.Is(err, service.ErrShiftsDisabled):
		response.NotAcceptable(c, codeShiftsDisabled, "课程未启用 shift")
	case errors.Is(err, service.ErrExportNoShifts):
		response.NotFound(c, codeExportNoShifts, "该课程暂无 shift")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, codeExportGenerateErr, "生成导出文件失败")
	default:
		response.InternalError(c)
	}
}
