package handler

import (
	"github.com/gin-gonic/gin"

	"course-shifts/pkg/response"
)

// MustGetCourseKey 从路径参数中提取 course_key。
// 缺失时写入 400 响应并返回 false，调用方应直接 return。
func MustGetCourseKey(c *gin.Context) (string, bool) {
	courseKey := c.Param("course_key")
	if courseKey == "" {
		response.BadRequest(c, 10001, "course_key 不能为空")
		return "", false
	}
	return courseKey, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetUsername 从 Gin 上下文中安全提取 username（JWT 中携带）
func MustGetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get("username")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}
