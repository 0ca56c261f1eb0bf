package model

// User 学员/管理员表，对应 users
// 用户主数据由 LMS 通过 /users 接口同步，shift 模块只读
type User struct {
	UserID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username string `gorm:"type:varchar(150);not null;uniqueIndex"         json:"username"`
	Email    string `gorm:"type:varchar(254);not null"                     json:"email"`
	IsStaff  bool   `gorm:"not null"                                       json:"is_staff"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
