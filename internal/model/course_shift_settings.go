package model

import "time"

// CourseShiftSettings 课程 shift 设置表，对应 course_shift_settings（每门课程一行）
//
// bool / int 字段不写 gorm default 标签：否则值为 false / 0 时 gorm 会省略该列，
// 落库变成数据库默认值。
type CourseShiftSettings struct {
	SettingsID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"-"`
	CourseKey           string     `gorm:"type:varchar(255);not null;uniqueIndex"         json:"course_key"`
	IsShiftEnabled      bool       `gorm:"not null"                                       json:"is_shift_enabled"`
	IsAutostart         bool       `gorm:"not null"                                       json:"is_autostart"`
	AutostartPeriodDays int        `gorm:"not null"                                       json:"autostart_period_days"`
	EnrollBeforeDays    int        `gorm:"not null"                                       json:"enroll_before_days"`
	EnrollAfterDays     int        `gorm:"not null"                                       json:"enroll_after_days"`
	CourseStartDate     *time.Time `gorm:"type:date"                                      json:"course_start_date,omitempty"`
	BaseModel
}

// TableName 指定表名
func (CourseShiftSettings) TableName() string { return "course_shift_settings" }
