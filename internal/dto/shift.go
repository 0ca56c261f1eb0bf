package dto

// ── 课程 shift 模块 DTO ──

// UpdateShiftSettingsRequest 更新课程 shift 设置请求（部分更新）
// 数值范围在 Service 层校验，以便返回按字段的错误列表
type UpdateShiftSettingsRequest struct {
	IsShiftEnabled      *bool   `json:"is_shift_enabled"`
	IsAutostart         *bool   `json:"is_autostart"`
	AutostartPeriodDays *int    `json:"autostart_period_days"`
	EnrollBeforeDays    *int    `json:"enroll_before_days"`
	EnrollAfterDays     *int    `json:"enroll_after_days"`
	CourseStartDate     *string `json:"course_start_date"` // "2026-09-01"
}

// ShiftSettingsResponse 课程 shift 设置响应
type ShiftSettingsResponse struct {
	CourseKey           string `json:"course_key"`
	IsShiftEnabled      bool   `json:"is_shift_enabled"`
	IsAutostart         bool   `json:"is_autostart"`
	AutostartPeriodDays int    `json:"autostart_period_days"`
	EnrollBeforeDays    int    `json:"enroll_before_days"`
	EnrollAfterDays     int    `json:"enroll_after_days"`
	CourseStartDate     string `json:"course_start_date,omitempty"`
}

// CreateShiftRequest 手动创建 shift 请求，两个字段都可省略
type CreateShiftRequest struct {
	Name      string `json:"name"       binding:"omitempty,max=255"`
	StartDate string `json:"start_date"` // 省略时为今天
}

// UpdateShiftRequest 修改 shift 名称或开始日期
type UpdateShiftRequest struct {
	NewName      *string `json:"new_name"       binding:"omitempty,min=1,max=255"`
	NewStartDate *string `json:"new_start_date"`
}

// ShiftResponse shift 信息响应
type ShiftResponse struct {
	ID        string `json:"id"`
	CourseKey string `json:"course_key"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	DaysShift int    `json:"days_shift"`
}

// EnrollmentWindowResponse 报名窗口
type EnrollmentWindowResponse struct {
	EnrollStart  string `json:"enroll_start"`
	EnrollFinish string `json:"enroll_finish"`
}

// ShiftDetailResponse shift 详情（含报名窗口与人数）
type ShiftDetailResponse struct {
	ShiftResponse
	EnrollmentWindowResponse
	UsersCount int64 `json:"users_count"`
}

// EnrollUserRequest 将用户转入 shift；shift_name 为空表示退出当前 shift
type EnrollUserRequest struct {
	Username  string `json:"username"   binding:"required"`
	ShiftName string `json:"shift_name"`
	Forced    *bool  `json:"forced"` // 管理端默认强制
}

// CreateShiftPlanRequest 创建计划开班请求
type CreateShiftPlanRequest struct {
	StartDate string `json:"start_date" binding:"required"`
}

// ShiftPlanResponse 计划开班响应
type ShiftPlanResponse struct {
	ID         string `json:"id"`
	CourseKey  string `json:"course_key"`
	StartDate  string `json:"start_date"`
	LaunchDate string `json:"launch_date"`
}

// UpdateShiftsResponse 手动触发 shift 生成的结果
type UpdateShiftsResponse struct {
	Created int `json:"created"`
}

// ImportTransferRowError 批量转入中单行的错误
type ImportTransferRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportTransferResponse 批量转入结果
type ImportTransferResponse struct {
	Total       int                      `json:"total"`
	Transferred int                      `json:"transferred"`
	Errors      []ImportTransferRowError `json:"errors,omitempty"`
}

// ShiftFieldsRequest 按用户所在 shift 平移一组 iso8601 日期字段
type ShiftFieldsRequest struct {
	Username string            `json:"username" binding:"required"`
	Category string            `json:"category" binding:"required,oneof=course chapter sequential"`
	Fields   map[string]string `json:"fields"   binding:"required"`
}

// ShiftFieldsResponse 平移后的字段
type ShiftFieldsResponse struct {
	ShiftName string            `json:"shift_name,omitempty"`
	Fields    map[string]string `json:"fields"`
}
