package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"course-shifts/internal/dto"
	"course-shifts/internal/service"
	apperr "course-shifts/pkg/errors"
	"course-shifts/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ShiftService ──

type mockShiftService struct {
	settingsResult  *dto.ShiftSettingsResponse
	settingsErr     error
	updateFieldErrs []apperr.FieldError
	updateErr       error
	updateShiftsN   int
	updateShiftsErr error
	listResult      []dto.ShiftResponse
	listErr         error
	activeResult    []dto.ShiftResponse
	activeUsername  string
	detailResult    *dto.ShiftDetailResponse
	detailErr       error
	createResult    *dto.ShiftResponse
	createCreated   bool
	createErr       error
	updateShift     *dto.ShiftResponse
	updateShiftErr  error
	deleteErr       error
	userShift       *dto.ShiftResponse
	userShiftErr    error
	enrollErr       error
	enrollForced    *bool
	enrollShiftName string
	planResult      *dto.ShiftPlanResponse
	planCreated     bool
	planErr         error
	plans           []dto.ShiftPlanResponse
	deletePlanErr   error
	deletePlanDate  string
	shiftedDate     time.Time
	shiftedErr      error
	fieldsResult    *dto.ShiftFieldsResponse
	fieldsErr       error
}

func (m *mockShiftService) GetSettings(_ context.Context, _ string) (*dto.ShiftSettingsResponse, error) {
	return m.settingsResult, m.settingsErr
}
func (m *mockShiftService) UpdateSettings(_ context.Context, _ string, _ *dto.UpdateShiftSettingsRequest) ([]apperr.FieldError, error) {
	return m.updateFieldErrs, m.updateErr
}
func (m *mockShiftService) UpdateShifts(_ context.Context, _ string) (int, error) {
	return m.updateShiftsN, m.updateShiftsErr
}
func (m *mockShiftService) ListShifts(_ context.Context, _ string) ([]dto.ShiftResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockShiftService) GetShift(_ context.Context, _, _ string) (*dto.ShiftResponse, error) {
	if m.detailResult == nil {
		return nil, m.detailErr
	}
	return &m.detailResult.ShiftResponse, m.detailErr
}
func (m *mockShiftService) GetShiftDetail(_ context.Context, _, _ string) (*dto.ShiftDetailResponse, error) {
	return m.detailResult, m.detailErr
}
func (m *mockShiftService) CreateShift(_ context.Context, _ string, _ *dto.CreateShiftRequest) (*dto.ShiftResponse, bool, error) {
	return m.createResult, m.createCreated, m.createErr
}
func (m *mockShiftService) UpdateShift(_ context.Context, _, _ string, _ *dto.UpdateShiftRequest) (*dto.ShiftResponse, error) {
	return m.updateShift, m.updateShiftErr
}
func (m *mockShiftService) DeleteShift(_ context.Context, _, _ string) error {
	return m.deleteErr
}
func (m *mockShiftService) GetEnrollmentWindow(_ context.Context, _, _ string) (*dto.EnrollmentWindowResponse, error) {
	if m.detailResult == nil {
		return nil, m.detailErr
	}
	return &m.detailResult.EnrollmentWindowResponse, m.detailErr
}
func (m *mockShiftService) GetActiveShifts(_ context.Context, _, username string) ([]dto.ShiftResponse, error) {
	m.activeUsername = username
	return m.activeResult, nil
}
func (m *mockShiftService) GetUserShift(_ context.Context, _, _ string) (*dto.ShiftResponse, error) {
	return m.userShift, m.userShiftErr
}
func (m *mockShiftService) EnrollUser(_ context.Context, _, _, shiftName string, forced bool) error {
	m.enrollForced = &forced
	m.enrollShiftName = shiftName
	return m.enrollErr
}
func (m *mockShiftService) CreatePlan(_ context.Context, _ string, _ *dto.CreateShiftPlanRequest) (*dto.ShiftPlanResponse, bool, error) {
	return m.planResult, m.planCreated, m.planErr
}
func (m *mockShiftService) ListPlans(_ context.Context, _ string) ([]dto.ShiftPlanResponse, error) {
	return m.plans, nil
}
func (m *mockShiftService) DeletePlan(_ context.Context, _, startDate string) error {
	m.deletePlanDate = startDate
	return m.deletePlanErr
}
func (m *mockShiftService) GetShiftedDate(_ context.Context, _, _ string, _ time.Time) (time.Time, error) {
	return m.shiftedDate, m.shiftedErr
}
func (m *mockShiftService) ShiftUserFields(_ context.Context, _ string, _ *dto.ShiftFieldsRequest) (*dto.ShiftFieldsResponse, error) {
	return m.fieldsResult, m.fieldsErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportRoster(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportCalendar(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock ImportService ──

type mockImportService struct {
	result *dto.ImportTransferResponse
	err    error
	body   string
}

func (m *mockImportService) ImportTransfers(_ context.Context, _ string, r io.Reader) (*dto.ImportTransferResponse, error) {
	raw, _ := io.ReadAll(r)
	m.body = string(raw)
	return m.result, m.err
}

// ═══════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════

func setupShiftRouter(shiftSvc *mockShiftService, exportSvc *mockExportService, importSvc *mockImportService) *gin.Engine {
	if shiftSvc == nil {
		shiftSvc = &mockShiftService{}
	}
	if exportSvc == nil {
		exportSvc = &mockExportService{}
	}
	if importSvc == nil {
		importSvc = &mockImportService{}
	}
	h := NewShiftHandler(shiftSvc, exportSvc, importSvc)

	r := gin.New()
	course := r.Group("/courses/:course_key")
	course.GET("/shift-settings", h.GetSettings)
	course.PUT("/shift-settings", h.UpdateSettings)
	course.GET("/shifts", h.ListShifts)
	course.POST("/shifts", h.CreateShift)
	course.POST("/shifts/update", h.UpdateShifts)
	course.GET("/shifts/export", h.ExportRoster)
	course.GET("/shifts/calendar", h.ExportCalendar)
	course.GET("/shifts/:name", h.GetShift)
	course.PATCH("/shifts/:name", h.UpdateShift)
	course.DELETE("/shifts/:name", h.DeleteShift)
	course.GET("/shift-plans", h.ListPlans)
	course.POST("/shift-plans", h.CreatePlan)
	course.DELETE("/shift-plans/:date", h.DeletePlan)
	course.GET("/shift-membership", h.GetMembership)
	course.POST("/shift-membership", h.EnrollUser)
	course.POST("/shift-membership/import", h.ImportTransfers)
	course.POST("/shifted-dates", h.GetShiftedDate)
	course.POST("/shifted-dates/fields", h.ShiftFields)

	me := r.Group("/me/courses/:course_key", func(c *gin.Context) {
		c.Set("username", "alice")
		c.Next()
	})
	me.GET("/my-shift", h.GetMyShift)
	me.POST("/my-shift", h.EnrollMe)
	return r
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func doRequest(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// 错误映射
// ═══════════════════════════════════════════════════════════

func TestHandleShiftError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"shift 不存在", &apperr.NotFoundError{Kind: "shift", Key: "x"}, http.StatusNotFound, codeShiftNotFound},
		{"用户不存在", &apperr.NotFoundError{Kind: "user", Key: "bob"}, http.StatusNotFound, codeUserNotFound},
		{"计划不存在", &apperr.NotFoundError{Kind: "plan", Key: "2026-01-01"}, http.StatusNotFound, codePlanNotFound},
		{"名称冲突", &apperr.ConflictError{CourseKey: "c", Field: "name", Value: "a"}, http.StatusConflict, codeShiftConflict},
		{"状态过期", &apperr.StaleStateError{Username: "u", Current: "a", Asserted: "b"}, http.StatusBadRequest, codeStaleState},
		{"不可报名", &apperr.NotEligibleError{Shift: "a"}, http.StatusBadRequest, codeNotEligible},
		{"跨课程", &apperr.CourseMismatchError{Expected: "c1", Actual: "c2", Shift: "a"}, http.StatusBadRequest, codeCourseMismatch},
		{"校验失败", apperr.NewValidationError("start_date", "格式错误"), http.StatusBadRequest, codeValidation},
		{"未启用", service.ErrShiftsDisabled, http.StatusNotAcceptable, codeShiftsDisabled},
		{"包装后的冲突", fmt.Errorf("外层: %w", &apperr.ConflictError{Field: "start_date"}), http.StatusConflict, codeShiftConflict},
		{"未知错误", errors.New("db down"), http.StatusInternalServerError, 50000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			handleShiftError(c, tc.err)

			if w.Code != tc.status {
				t.Errorf("期望状态码 %d, 实际 %d", tc.status, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tc.code {
				t.Errorf("期望业务码 %d, 实际 %d", tc.code, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// 设置
// ═══════════════════════════════════════════════════════════

func TestShiftHandler_GetSettings_Success(t *testing.T) {
	svc := &mockShiftService{settingsResult: &dto.ShiftSettingsResponse{CourseKey: "course-1", EnrollBeforeDays: 14}}
	r := setupShiftRouter(svc, nil, nil)

	w := doRequest(r, "GET", "/courses/course-1/shift-settings", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d", w.Code)
	}
	data, _ := json.Marshal(parseResponse(w).Data)
	var got dto.ShiftSettingsResponse
	json.Unmarshal(data, &got)
	if got.CourseKey != "course-1" || got.EnrollBeforeDays != 14 {
		t.Errorf("返回设置不正确: %+v", got)
	}
}

func TestShiftHandler_UpdateSettings_FieldErrors(t *testing.T) {
	svc := &mockShiftService{updateFieldErrs: []apperr.FieldError{
		{Field: "autostart_period_days", Message: "必须为正数"},
		{Field: "enroll_after_days", Message: "不能为负数"},
	}}
	r := setupShiftRouter(svc, nil, nil)

	w := doRequest(r, "PUT", "/courses/course-1/shift-settings", jsonBody(map[string]int{
		"autostart_period_days": 0,
		"enroll_after_days":     -1,
	}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望状态码 400, 实际 %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != codeValidation {
		t.Errorf("期望业务码 %d, 实际 %d", codeValidation, resp.Code)
	}
	details, ok := resp.Details.([]interface{})
	if !ok || len(details) != 2 {
		t.Errorf("应返回 2 个字段错误, 实际 %v", resp.Details)
	}
}

func TestShiftHandler_UpdateSettings_BadJSON(t *testing.T) {
	r := setupShiftRouter(nil, nil, nil)

	w := doRequest(r, "PUT", "/courses/course-1/shift-settings", strings.NewReader("not json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望状态码 400, 实际 %d", w.Code)
	}
}

func TestShiftHandler_UpdateSettings_ReturnsFreshSettings(t *testing.T) {
	svc := &mockShiftService{settingsResult: &dto.ShiftSettingsResponse{CourseKey: "course-1", IsShiftEnabled: true}}
	r := setupShiftRouter(svc, nil, nil)

	w := doRequest(r, "PUT", "/courses/course-1/shift-settings", jsonBody(map[string]bool{"is_shift_enabled": true}))

	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d: %s", w.Code, w.Body.String())
	}
}

// ═══════════════════════════════════════════════════════════
// shift
// ═══════════════════════════════════════════════════════════

func TestShiftHandler_CreateShift_CreatedVsExisting(t *testing.T) {
	shift := &dto.ShiftResponse{Name: "shift_a", StartDate: "2026-03-15"}

	svc := &mockShiftService{createResult: shift, createCreated: true}
	w := doRequest(setupShiftRouter(svc, nil, nil), "POST", "/courses/c/shifts", jsonBody(dto.CreateShiftRequest{Name: "shift_a"}))
	if w.Code != http.StatusCreated {
		t.Errorf("新建时期望 201, 实际 %d", w.Code)
	}

	svc = &mockShiftService{createResult: shift, createCreated: false}
	w = doRequest(setupShiftRouter(svc, nil, nil), "POST", "/courses/c/shifts", jsonBody(dto.CreateShiftRequest{Name: "shift_a"}))
	if w.Code != http.StatusOK {
		t.Errorf("已存在时期望 200, 实际 %d", w.Code)
	}
}

func TestShiftHandler_CreateShift_EmptyBody(t *testing.T) {
	svc := &mockShiftService{createResult: &dto.ShiftResponse{Name: "shift_c_2026-03-15"}, createCreated: true}
	r := setupShiftRouter(svc, nil, nil)

	req := httptest.NewRequest("POST", "/courses/c/shifts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("空请求体应使用默认值创建, 实际 %d: %s", w.Code, w.Body.String())
	}
}

func TestShiftHandler_CreateShift_Conflict(t *testing.T) {
	svc := &mockShiftService{createErr: &apperr.ConflictError{CourseKey: "c", Field: "start_date", Value: "2026-03-15"}}
	w := doRequest(setupShiftRouter(svc, nil, nil), "POST", "/courses/c/shifts", jsonBody(dto.CreateShiftRequest{Name: "b"}))

	if w.Code != http.StatusConflict {
		t.Errorf("期望状态码 409, 实际 %d", w.Code)
	}
	if !strings.Contains(parseResponse(w).Message, "2026-03-15") {
		t.Errorf("错误信息应包含冲突日期: %s", w.Body.String())
	}
}

func TestShiftHandler_CreateShift_Disabled(t *testing.T) {
	svc := &mockShiftService{createErr: service.ErrShiftsDisabled}
	w := doRequest(setupShiftRouter(svc, nil, nil), "POST", "/courses/c/shifts", jsonBody(dto.CreateShiftRequest{}))

	if w.Code != http.StatusNotAcceptable {
		t.Errorf("期望状态码 406, 实际 %d", w.Code)
	}
}

func TestShiftHandler_ListShifts_ActiveFilter(t *testing.T) {
	svc := &mockShiftService{
		listResult:   []dto.ShiftResponse{{Name: "a"}, {Name: "b"}},
		activeResult: []dto.ShiftResponse{{Name: "a"}},
	}
	r := setupShiftRouter(svc, nil, nil)

	w := doRequest(r, "GET", "/courses/c/shifts?active=true&username=alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d", w.Code)
	}
	if svc.activeUsername != "alice" {
		t.Errorf("应将 username 透传给 GetActiveShifts, 实际 %q", svc.activeUsername)
	}
	data := parseResponse(w).Data.(map[string]interface{})
	if list := data["list"].([]interface{}); len(list) != 1 {
		t.Errorf("期望 1 个可报名 shift, 实际 %d", len(list))
	}

	w = doRequest(r, "GET", "/courses/c/shifts", nil)
	data = parseResponse(w).Data.(map[string]interface{})
	if list := data["list"].([]interface{}); len(list) != 2 {
		t.Errorf("期望 2 个 shift, 实际 %d", len(list))
	}
}

func TestShiftHandler_GetShift_NotFound(t *testing.T) {
	svc := &mockShiftService{detailErr: &apperr.NotFoundError{Kind: "shift", Key: "missing", CourseKey: "c"}}
	w := doRequest(setupShiftRouter(svc, nil, nil), "GET", "/courses/c/shifts/missing", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望状态码 404, 实际 %d", w.Code)
	}
}

func TestShiftHandler_StaticRoutesNotShadowedByName(t *testing.T) {
	svc := &mockShiftService{updateShiftsN: 2}
	exp := &mockExportService{buf: bytes.NewBufferString("BEGIN:VCALENDAR"), filename: "shifts_c.ics"}
	r := setupShiftRouter(svc, exp, nil)

	w := doRequest(r, "POST", "/courses/c/shifts/update", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d", w.Code)
	}
	data := parseResponse(w).Data.(map[string]interface{})
	if data["created"].(float64) != 2 {
		t.Errorf("期望 created=2, 实际 %v", data["created"])
	}

	w = doRequest(r, "GET", "/courses/c/shifts/calendar", nil)
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar") {
		t.Errorf("calendar 应返回 ICS, 实际 Content-Type=%s", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "shifts_c.ics") {
		t.Errorf("应设置下载文件名, 实际 %s", w.Header().Get("Content-Disposition"))
	}
}

func TestShiftHandler_ExportRoster_NoShifts(t *testing.T) {
	exp := &mockExportService{err: service.ErrExportNoShifts}
	w := doRequest(setupShiftRouter(nil, exp, nil), "GET", "/courses/c/shifts/export", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望状态码 404, 实际 %d", w.Code)
	}
}

func TestShiftHandler_DeleteShift(t *testing.T) {
	w := doRequest(setupShiftRouter(&mockShiftService{}, nil, nil), "DELETE", "/courses/c/shifts/a", nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望状态码 200, 实际 %d", w.Code)
	}
}

func TestShiftHandler_UpdateShift_Validation(t *testing.T) {
	svc := &mockShiftService{updateShiftErr: apperr.NewValidationError("new_start_date", "日期格式应为 YYYY-MM-DD")}
	w := doRequest(setupShiftRouter(svc, nil, nil), "PATCH", "/courses/c/shifts/a", jsonBody(map[string]string{"new_start_date": "bad"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望状态码 400, 实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// 计划
// ═══════════════════════════════════════════════════════════

func TestShiftHandler_CreatePlan_MissingDate(t *testing.T) {
	w := doRequest(setupShiftRouter(nil, nil, nil), "POST", "/courses/c/shift-plans", jsonBody(map[string]string{}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少 start_date 时期望 400, 实际 %d", w.Code)
	}
}

func TestShiftHandler_DeletePlan_PassesDate(t *testing.T) {
	svc := &mockShiftService{}
	w := doRequest(setupShiftRouter(svc, nil, nil), "DELETE", "/courses/c/shift-plans/2026-04-01", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d", w.Code)
	}
	if svc.deletePlanDate != "2026-04-01" {
		t.Errorf("期望透传日期 2026-04-01, 实际 %s", svc.deletePlanDate)
	}
}

// ═══════════════════════════════════════════════════════════
// 成员
// ═══════════════════════════════════════════════════════════

func TestShiftHandler_EnrollUser_DefaultsToForced(t *testing.T) {
	svc := &mockShiftService{userShift: &dto.ShiftResponse{Name: "b"}}
	w := doRequest(setupShiftRouter(svc, nil, nil), "POST", "/courses/c/shift-membership",
		jsonBody(map[string]string{"username": "alice", "shift_name": "b"}))

	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d: %s", w.Code, w.Body.String())
	}
	if svc.enrollForced == nil || !*svc.enrollForced {
		t.Error("未指定 forced 时应默认强制转入")
	}
	if svc.enrollShiftName != "b" {
		t.Errorf("期望转入 b, 实际 %s", svc.enrollShiftName)
	}
}

func TestShiftHandler_EnrollUser_NotEligible(t *testing.T) {
	svc := &mockShiftService{enrollErr: &apperr.NotEligibleError{Shift: "late", Active: []string{"a"}}}
	w := doRequest(setupShiftRouter(svc, nil, nil), "POST", "/courses/c/shift-membership",
		jsonBody(map[string]interface{}{"username": "alice", "shift_name": "late", "forced": false}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望状态码 400, 实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != codeNotEligible {
		t.Errorf("期望业务码 %d, 实际 %d", codeNotEligible, resp.Code)
	}
	if *svc.enrollForced {
		t.Error("显式 forced=false 应透传")
	}
}

func TestShiftHandler_GetMembership_RequiresUsername(t *testing.T) {
	w := doRequest(setupShiftRouter(nil, nil, nil), "GET", "/courses/c/shift-membership", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("期望状态码 400, 实际 %d", w.Code)
	}
}

func TestShiftHandler_GetMembership_NoShift(t *testing.T) {
	w := doRequest(setupShiftRouter(&mockShiftService{}, nil, nil), "GET", "/courses/c/shift-membership?username=alice", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d", w.Code)
	}
	data := parseResponse(w).Data.(map[string]interface{})
	if data["shift"] != nil {
		t.Errorf("未加入 shift 时应返回 null, 实际 %v", data["shift"])
	}
}

func TestShiftHandler_EnrollMe_NotForced(t *testing.T) {
	svc := &mockShiftService{userShift: &dto.ShiftResponse{Name: "b"}}
	w := doRequest(setupShiftRouter(svc, nil, nil), "POST", "/me/courses/c/my-shift", jsonBody(SelfEnrollRequest{ShiftName: "b"}))

	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d: %s", w.Code, w.Body.String())
	}
	if svc.enrollForced == nil || *svc.enrollForced {
		t.Error("学员自助切换不应强制")
	}
}

func TestShiftHandler_GetMyShift_UsesTokenUsername(t *testing.T) {
	svc := &mockShiftService{activeResult: []dto.ShiftResponse{{Name: "a"}}}
	w := doRequest(setupShiftRouter(svc, nil, nil), "GET", "/me/courses/c/my-shift", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d", w.Code)
	}
	if svc.activeUsername != "alice" {
		t.Errorf("应使用登录用户名, 实际 %q", svc.activeUsername)
	}
}

func newMultipart(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "transfers.xlsx")
	if err != nil {
		t.Fatalf("创建表单文件失败: %v", err)
	}
	part.Write([]byte(content))
	mw.Close()
	return body, mw.FormDataContentType()
}

func TestShiftHandler_ImportTransfers_Success(t *testing.T) {
	imp := &mockImportService{result: &dto.ImportTransferResponse{Total: 2, Transferred: 2}}
	r := setupShiftRouter(nil, nil, imp)

	body, contentType := newMultipart(t, "xlsx-bytes")
	req := httptest.NewRequest("POST", "/courses/c/shift-membership/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d: %s", w.Code, w.Body.String())
	}
	if imp.body != "xlsx-bytes" {
		t.Errorf("上传内容应透传给导入服务, 实际 %q", imp.body)
	}
}

func TestShiftHandler_ImportTransfers_RowErrors(t *testing.T) {
	imp := &mockImportService{
		result: &dto.ImportTransferResponse{Total: 1, Errors: []dto.ImportTransferRowError{{Row: 2, Message: "用户 x 不存在"}}},
		err:    service.ErrImportRowsInvalid,
	}
	r := setupShiftRouter(nil, nil, imp)

	body, contentType := newMultipart(t, "xlsx")
	req := httptest.NewRequest("POST", "/courses/c/shift-membership/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望状态码 400, 实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Details == nil {
		t.Error("应在 details 中返回逐行错误")
	}
}

func TestShiftHandler_ImportTransfers_MissingFile(t *testing.T) {
	w := doRequest(setupShiftRouter(nil, nil, nil), "POST", "/courses/c/shift-membership/import", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("期望状态码 400, 实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// 日期平移
// ═══════════════════════════════════════════════════════════

func TestShiftHandler_GetShiftedDate(t *testing.T) {
	svc := &mockShiftService{shiftedDate: time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC)}
	w := doRequest(setupShiftRouter(svc, nil, nil), "POST", "/courses/c/shifted-dates",
		jsonBody(ShiftedDateRequest{Username: "alice", Date: "2026-03-15"}))

	if w.Code != http.StatusOK {
		t.Fatalf("期望状态码 200, 实际 %d: %s", w.Code, w.Body.String())
	}
	data := parseResponse(w).Data.(map[string]interface{})
	if data["shifted_date"] != "2026-03-25" {
		t.Errorf("期望 2026-03-25, 实际 %v", data["shifted_date"])
	}
}

func TestShiftHandler_GetShiftedDate_BadDate(t *testing.T) {
	w := doRequest(setupShiftRouter(nil, nil, nil), "POST", "/courses/c/shifted-dates",
		jsonBody(ShiftedDateRequest{Username: "alice", Date: "15/03/2026"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望状态码 400, 实际 %d", w.Code)
	}
}

func TestShiftHandler_ShiftFields_RejectsUnknownCategory(t *testing.T) {
	w := doRequest(setupShiftRouter(nil, nil, nil), "POST", "/courses/c/shifted-dates/fields",
		jsonBody(map[string]interface{}{"username": "alice", "category": "problem", "fields": map[string]string{"due": "2026-03-15"}}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望状态码 400, 实际 %d", w.Code)
	}
}
