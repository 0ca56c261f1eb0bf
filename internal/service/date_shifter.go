package service

import (
	"fmt"
	"math"
	"time"

	"course-shifts/internal/model"
)

// ── 日期工具 ──
// 所有日期统一为 UTC 零点，比较与加减都按整天进行

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// daysBetween 返回 to - from 的天数
func daysBetween(from, to time.Time) int {
	return int(math.Round(dateOnly(to).Sub(dateOnly(from)).Hours() / 24))
}

// ParseDate 解析 YYYY-MM-DD，返回 UTC 零点
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return dateOnly(t), nil
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

// ────────────────────── DateShifter ──────────────────────

// ShiftDate 按 shift 的偏移天数平移日期，shift 为 nil 时原样返回
// 时刻部分保持不变
func ShiftDate(shift *model.CourseShiftGroup, date time.Time) time.Time {
	if shift == nil || shift.DaysShift == 0 {
		return date
	}
	return addDays(date, shift.DaysShift)
}

// 支持的 iso8601 格式，按顺序尝试，输出沿用输入的格式
var isoLayouts = []string{
	model.DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// ShiftISOString 平移 iso8601 字符串表示的日期或时间
func ShiftISOString(shift *model.CourseShiftGroup, value string) (string, error) {
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return ShiftDate(shift, t).Format(layout), nil
	}
	return "", fmt.Errorf("无法解析的日期: %q", value)
}

// ShiftISOFields 平移一组 iso8601 字段，空值原样保留
// 任一字段无法解析时返回错误，不返回部分结果
func ShiftISOFields(shift *model.CourseShiftGroup, fields map[string]string) (map[string]string, error) {
	result := make(map[string]string, len(fields))
	for key, value := range fields {
		if value == "" {
			result[key] = value
			continue
		}
		shifted, err := ShiftISOString(shift, value)
		if err != nil {
			return nil, fmt.Errorf("字段 %s: %w", key, err)
		}
		result[key] = shifted
	}
	return result, nil
}

// 各类课程内容中需要随 shift 平移的日期字段
var shiftedFieldsByCategory = map[string][]string{
	"course":     {"due"},
	"chapter":    {"due", "start"},
	"sequential": {"due", "start"},
}

// ShouldShiftField 判断某类内容的字段是否需要平移
func ShouldShiftField(category, field string) bool {
	for _, f := range shiftedFieldsByCategory[category] {
		if f == field {
			return true
		}
	}
	return false
}
