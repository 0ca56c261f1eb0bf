package dto

// ── 用户同步 DTO ──

// SyncUserRequest LMS 推送的用户信息，按 username 新建或更新
type SyncUserRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Email    string `json:"email"    binding:"omitempty,email,max=254"`
	IsStaff  bool   `json:"is_staff"`
}

// UserResponse 用户信息响应
type UserResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}

// ImportUserResponse 批量导入用户响应
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}

// ImportUserError 单行导入错误
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
