package service

import (
	"sort"
	"time"

	"course-shifts/internal/model"
)

// ── 报名资格（纯函数，不访问存储） ──

// EnrollmentWindow 返回 shift 的报名窗口 [start-before, start+after]
func EnrollmentWindow(shift *model.CourseShiftGroup, settings *model.CourseShiftSettings) (time.Time, time.Time) {
	start := dateOnly(shift.StartDate)
	return addDays(start, -settings.EnrollBeforeDays), addDays(start, settings.EnrollAfterDays)
}

// IsEnrollable 判断 today 是否落在报名窗口内
// 下界开、上界闭：start-before < today <= start+after
func IsEnrollable(shift *model.CourseShiftGroup, settings *model.CourseShiftSettings, today time.Time) bool {
	open, finish := EnrollmentWindow(shift, settings)
	today = dateOnly(today)
	return open.Before(today) && !today.After(finish)
}

// ActiveShifts 计算当前可转入的 shift
//
// 两类 shift 可转入：
//   - 报名窗口覆盖 today 的
//   - currentStart 非空时，开始日期在 [currentStart, today] 之间的（已开始且不早于当前 shift）
//
// 结果按 start_date 倒序、name 正序
func ActiveShifts(all []model.CourseShiftGroup, settings *model.CourseShiftSettings, today time.Time, currentStart *time.Time) []model.CourseShiftGroup {
	today = dateOnly(today)
	active := make([]model.CourseShiftGroup, 0, len(all))
	for i := range all {
		s := &all[i]
		if IsEnrollable(s, settings, today) {
			active = append(active, *s)
			continue
		}
		if currentStart != nil {
			start := dateOnly(s.StartDate)
			if !start.Before(dateOnly(*currentStart)) && !start.After(today) {
				active = append(active, *s)
			}
		}
	}
	sortShifts(active)
	return active
}

func sortShifts(shifts []model.CourseShiftGroup) {
	sort.SliceStable(shifts, func(i, j int) bool {
		if !shifts[i].StartDate.Equal(shifts[j].StartDate) {
			return shifts[i].StartDate.After(shifts[j].StartDate)
		}
		return shifts[i].Name < shifts[j].Name
	})
}

func containsShift(shifts []model.CourseShiftGroup, shiftID string) bool {
	for i := range shifts {
		if shifts[i].ShiftID == shiftID {
			return true
		}
	}
	return false
}

func shiftNames(shifts []model.CourseShiftGroup) []string {
	names := make([]string, 0, len(shifts))
	for i := range shifts {
		names = append(names, shifts[i].Name)
	}
	return names
}
