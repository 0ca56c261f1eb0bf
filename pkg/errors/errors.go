package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ── 错误类别（用 errors.Is 判断） ──

var (
	// ErrConflict 唯一性冲突：名称或开始日期已被同课程的其他 shift 占用
	ErrConflict = errors.New("数据冲突")
	// ErrCourseMismatch 跨课程操作
	ErrCourseMismatch = errors.New("课程不匹配")
	// ErrStaleState 调用方认为的当前状态与实际不符
	ErrStaleState = errors.New("状态已过期")
	// ErrNotEligible 不在可报名窗口内且未强制
	ErrNotEligible = errors.New("不可报名")
	// ErrNotFound 查询对象不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrValidation 参数或设置不合法
	ErrValidation = errors.New("参数校验失败")
)

// ConflictError shift 名称或日期冲突
type ConflictError struct {
	CourseKey string
	Field     string // name | start_date
	Value     string
}

func (e *ConflictError) Error() string {
	switch e.Field {
	case "start_date":
		return fmt.Sprintf("课程 %s 已存在开始日期为 %s 的 shift", e.CourseKey, e.Value)
	case "name":
		return fmt.Sprintf("课程 %s 已存在名称为 %s 的 shift", e.CourseKey, e.Value)
	default:
		return fmt.Sprintf("课程 %s 的 %s=%s 冲突", e.CourseKey, e.Field, e.Value)
	}
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// CourseMismatchError shift 不属于操作所针对的课程
type CourseMismatchError struct {
	Expected string
	Actual   string
	Shift    string
}

func (e *CourseMismatchError) Error() string {
	return fmt.Sprintf("shift '%s' 属于课程 '%s'，而非 '%s'", e.Shift, e.Actual, e.Expected)
}

func (e *CourseMismatchError) Unwrap() error { return ErrCourseMismatch }

// StaleStateError 用户实际所在 shift 与调用方断言的不一致
// 空字符串表示“未加入任何 shift”
type StaleStateError struct {
	Username string
	Current  string
	Asserted string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("用户 %s 当前所在 shift 为 '%s'，而非 '%s'",
		e.Username, displayShift(e.Current), displayShift(e.Asserted))
}

func (e *StaleStateError) Unwrap() error { return ErrStaleState }

// NotEligibleError 目标 shift 不在可报名列表中
type NotEligibleError struct {
	Shift  string
	Active []string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("shift '%s' 不在可报名列表中: [%s]", e.Shift, strings.Join(e.Active, ", "))
}

func (e *NotEligibleError) Unwrap() error { return ErrNotEligible }

// NotFoundError 按名称查找的对象不存在
type NotFoundError struct {
	Kind      string // shift | user | plan | settings
	Key       string
	CourseKey string
}

func (e *NotFoundError) Error() string {
	if e.CourseKey != "" {
		return fmt.Sprintf("%s '%s' 在课程 %s 中不存在", e.Kind, e.Key, e.CourseKey)
	}
	return fmt.Sprintf("%s '%s' 不存在", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 一个或多个字段校验失败
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError 构造单字段校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "参数校验失败: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func displayShift(name string) string {
	if name == "" {
		return "无"
	}
	return name
}
