package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"course-shifts/pkg/jwt"
	"course-shifts/pkg/response"
)

// APIKeyHeader 外部系统（批量导入脚本、内容服务）调用时携带的密钥头
const APIKeyHeader = "X-Api-Key"

// 通过 API Key 认证的调用方在上下文中的角色
const RoleService = "service"

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, jwtMgr)
		if !ok {
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// StaffOrAPIKey 管理端 JWT 或外部系统 API Key 二选一
// 携带 X-Api-Key 时只校验密钥；apiKeyHash 为空表示未开放 API Key 访问
func StaffOrAPIKey(jwtMgr *jwt.Manager, apiKeyHash string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(APIKeyHeader); key != "" {
			if !checkAPIKey(apiKeyHash, key) {
				response.Unauthorized(c, 10002, "API Key 无效")
				c.Abort()
				return
			}
			c.Set("user_id", "")
			c.Set("role", RoleService)
			c.Next()
			return
		}

		claims, ok := parseBearer(c, jwtMgr)
		if !ok {
			c.Abort()
			return
		}
		if !hasRole(claims.Role, allowedRoles) {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		if hasRole(userRole, allowedRoles) {
			c.Next()
			return
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}

func parseBearer(c *gin.Context, jwtMgr *jwt.Manager) (*jwt.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Unauthorized(c, 10002, "缺少认证头")
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		response.Unauthorized(c, 10002, "认证头格式无效")
		return nil, false
	}

	claims, err := jwtMgr.ParseToken(parts[1])
	if err != nil {
		response.Unauthorized(c, 10002, "Token 无效或已过期")
		return nil, false
	}
	return claims, true
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("role", claims.Role)
}

func checkAPIKey(hash, key string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
