package model

import (
	"fmt"
	"time"
)

// CourseShiftGroup 课程 shift 表，对应 course_shift_groups
// 同一课程内 name 唯一、start_date 唯一
type CourseShiftGroup struct {
	ShiftID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	CourseKey string    `gorm:"type:varchar(255);not null"                     json:"course_key"`
	Name      string    `gorm:"type:varchar(255);not null"                     json:"name"`
	StartDate time.Time `gorm:"type:date;not null"                             json:"start_date"`
	DaysShift int       `gorm:"not null"                                       json:"days_shift"` // 截止/开始日期的偏移天数
	BaseModel
}

// TableName 指定表名
func (CourseShiftGroup) TableName() string { return "course_shift_groups" }

func (s *CourseShiftGroup) String() string {
	return fmt.Sprintf("'%s' in '%s'", s.Name, s.CourseKey)
}

// CourseShiftMembership 用户 shift 归属表，对应 course_shift_memberships
// (user_id, course_key) 唯一；只插入、删除，不更新
type CourseShiftMembership struct {
	MembershipID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"membership_id"`
	UserID       string    `gorm:"type:uuid;not null"                             json:"user_id"`
	ShiftID      string    `gorm:"type:uuid;not null"                             json:"shift_id"`
	CourseKey    string    `gorm:"type:varchar(255);not null"                     json:"course_key"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Shift *CourseShiftGroup `gorm:"foreignKey:ShiftID;references:ShiftID" json:"shift,omitempty"`
	User  *User             `gorm:"foreignKey:UserID;references:UserID"   json:"user,omitempty"`
}

// TableName 指定表名
func (CourseShiftMembership) TableName() string { return "course_shift_memberships" }

// CourseShiftPlan 计划开班表，对应 course_shift_plans（仅手动模式使用）
type CourseShiftPlan struct {
	PlanID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"plan_id"`
	CourseKey string    `gorm:"type:varchar(255);not null"                     json:"course_key"`
	StartDate time.Time `gorm:"type:date;not null"                             json:"start_date"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (CourseShiftPlan) TableName() string { return "course_shift_plans" }
