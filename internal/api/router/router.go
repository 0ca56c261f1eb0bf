package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"course-shifts/config"
	"course-shifts/internal/api/handler"
	"course-shifts/internal/api/middleware"
	"course-shifts/pkg/jwt"
	"course-shifts/pkg/redis"
)

const (
	importMaxBytes    = 10 << 20
	importRateLimit   = 10
	importRateWindow  = time.Minute
	defaultMaxBodyLen = 1 << 20
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时限流中间件直接放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 管理端 / 外部系统
		course := v1.Group("/courses/:course_key")
		course.Use(middleware.StaffOrAPIKey(jwtMgr, cfg.Auth.APIKeyHash, "staff", "admin"))
		{
			course.GET("/shift-settings", h.Shift.GetSettings)
			course.PUT("/shift-settings", middleware.BodyLimit(defaultMaxBodyLen), h.Shift.UpdateSettings)

			shifts := course.Group("/shifts")
			{
				shifts.GET("", h.Shift.ListShifts)
				shifts.POST("", middleware.BodyLimit(defaultMaxBodyLen), h.Shift.CreateShift)
				shifts.POST("/update", h.Shift.UpdateShifts)
				shifts.GET("/export", h.Shift.ExportRoster)
				shifts.GET("/calendar", h.Shift.ExportCalendar)
				shifts.GET("/:name", h.Shift.GetShift)
				shifts.PATCH("/:name", middleware.BodyLimit(defaultMaxBodyLen), h.Shift.UpdateShift)
				shifts.DELETE("/:name", middleware.RoleAuth("admin", middleware.RoleService), h.Shift.DeleteShift)
			}

			plans := course.Group("/shift-plans")
			{
				plans.GET("", h.Shift.ListPlans)
				plans.POST("", middleware.BodyLimit(defaultMaxBodyLen), h.Shift.CreatePlan)
				plans.DELETE("/:date", h.Shift.DeletePlan)
			}

			membership := course.Group("/shift-membership")
			{
				membership.GET("", h.Shift.GetMembership)
				membership.POST("", middleware.BodyLimit(defaultMaxBodyLen), h.Shift.EnrollUser)
				membership.POST("/import",
					middleware.RateLimit(rdb, importRateLimit, importRateWindow),
					middleware.BodyLimit(importMaxBytes),
					h.Shift.ImportTransfers)
			}

			course.POST("/shifted-dates", h.Shift.GetShiftedDate)
			course.POST("/shifted-dates/fields", middleware.BodyLimit(defaultMaxBodyLen), h.Shift.ShiftFields)
		}

		// 用户同步（LMS 推送）
		users := v1.Group("/users")
		users.Use(middleware.StaffOrAPIKey(jwtMgr, cfg.Auth.APIKeyHash, "admin"))
		{
			users.GET("/:username", h.User.GetUser)
			users.PUT("", middleware.BodyLimit(defaultMaxBodyLen), h.User.SyncUser)
			users.POST("/import",
				middleware.RateLimit(rdb, importRateLimit, importRateWindow),
				middleware.BodyLimit(importMaxBytes),
				h.User.ImportUsers)
		}

		// 学员自助
		me := v1.Group("/me/courses/:course_key")
		me.Use(middleware.JWTAuth(jwtMgr))
		{
			me.GET("/my-shift", h.Shift.GetMyShift)
			me.POST("/my-shift", middleware.BodyLimit(defaultMaxBodyLen), h.Shift.EnrollMe)
		}
	}

	return r
}
