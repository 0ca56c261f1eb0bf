package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"course-shifts/internal/model"
	"course-shifts/pkg/redis"
)

// ShiftCache 设置与用户归属的读缓存
//
// 缓存只加速读取：转移等写操作始终直接读写数据库，
// 并在提交后同步失效相关 key。缓存出错时按未命中处理。
type ShiftCache interface {
	GetSettings(ctx context.Context, courseKey string) (*model.CourseShiftSettings, bool)
	SetSettings(ctx context.Context, settings *model.CourseShiftSettings)
	InvalidateSettings(ctx context.Context, courseKey string)

	// GetMembership 命中时返回用户所在 shift 的 ID，空串表示不在任何 shift
	GetMembership(ctx context.Context, courseKey, userID string) (string, bool)
	// MembershipVersion 回源读取前取得的版本号，交给 SetMembership 校验
	MembershipVersion(ctx context.Context, courseKey, userID string) int64
	// SetMembership 仅当期间没有发生 InvalidateMembership 时写入
	SetMembership(ctx context.Context, courseKey, userID, shiftID string, version int64)
	InvalidateMembership(ctx context.Context, courseKey string, userIDs ...string)
}

// membershipVersionTTL 版本计数的保留时间，远长于一次回源读取
const membershipVersionTTL = 24 * time.Hour

func settingsCacheKey(courseKey string) string {
	return fmt.Sprintf("course_shifts:settings:%s", courseKey)
}

// 同一课程的归属 key 与版本 key 落在同一个 slot
func membershipCacheKey(courseKey, userID string) string {
	return fmt.Sprintf("course_shifts:membership:{%s}:%s", courseKey, userID)
}

func membershipVersionKey(courseKey, userID string) string {
	return fmt.Sprintf("course_shifts:membership_ver:{%s}:%s", courseKey, userID)
}

// ── Redis 实现 ──

type redisShiftCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisShiftCache 创建基于 Redis 的 ShiftCache
func NewRedisShiftCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) ShiftCache {
	return &redisShiftCache{client: client, ttl: ttl, logger: logger}
}

type cachedMembership struct {
	ShiftID string `json:"shift_id"`
}

func (c *redisShiftCache) GetSettings(ctx context.Context, courseKey string) (*model.CourseShiftSettings, bool) {
	var settings model.CourseShiftSettings
	ok, err := c.client.GetJSON(ctx, settingsCacheKey(courseKey), &settings)
	if err != nil {
		c.logger.Warn("读取设置缓存失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &settings, true
}

func (c *redisShiftCache) SetSettings(ctx context.Context, settings *model.CourseShiftSettings) {
	if err := c.client.SetJSON(ctx, settingsCacheKey(settings.CourseKey), settings, c.ttl); err != nil {
		c.logger.Warn("写入设置缓存失败", zap.String("course_key", settings.CourseKey), zap.Error(err))
	}
}

func (c *redisShiftCache) InvalidateSettings(ctx context.Context, courseKey string) {
	if err := c.client.Delete(ctx, settingsCacheKey(courseKey)); err != nil {
		c.logger.Warn("清除设置缓存失败", zap.String("course_key", courseKey), zap.Error(err))
	}
}

func (c *redisShiftCache) GetMembership(ctx context.Context, courseKey, userID string) (string, bool) {
	var cached cachedMembership
	ok, err := c.client.GetJSON(ctx, membershipCacheKey(courseKey, userID), &cached)
	if err != nil {
		c.logger.Warn("读取归属缓存失败", zap.String("course_key", courseKey), zap.Error(err))
		return "", false
	}
	return cached.ShiftID, ok
}

func (c *redisShiftCache) MembershipVersion(ctx context.Context, courseKey, userID string) int64 {
	v, err := c.client.Version(ctx, membershipVersionKey(courseKey, userID))
	if err != nil {
		c.logger.Warn("读取归属缓存版本失败", zap.String("course_key", courseKey), zap.Error(err))
		return -1
	}
	return v
}

func (c *redisShiftCache) SetMembership(ctx context.Context, courseKey, userID, shiftID string, version int64) {
	if version < 0 {
		return
	}
	written, err := c.client.SetJSONIfVersion(ctx,
		membershipCacheKey(courseKey, userID), membershipVersionKey(courseKey, userID),
		version, cachedMembership{ShiftID: shiftID}, c.ttl)
	if err != nil {
		c.logger.Warn("写入归属缓存失败", zap.String("course_key", courseKey), zap.Error(err))
		return
	}
	if !written {
		c.logger.Debug("归属已变更，跳过缓存写入", zap.String("course_key", courseKey), zap.String("user_id", userID))
	}
}

func (c *redisShiftCache) InvalidateMembership(ctx context.Context, courseKey string, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	versionKeys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, membershipCacheKey(courseKey, id))
		versionKeys = append(versionKeys, membershipVersionKey(courseKey, id))
	}
	if err := c.client.BumpAndDelete(ctx, versionKeys, membershipVersionTTL, keys...); err != nil {
		c.logger.Warn("清除归属缓存失败", zap.String("course_key", courseKey), zap.Error(err))
	}
}

// ── 空实现（未配置 Redis 或关闭缓存时使用） ──

type noopShiftCache struct{}

// NewNoopShiftCache 创建不缓存任何内容的 ShiftCache
func NewNoopShiftCache() ShiftCache {
	return noopShiftCache{}
}

func (noopShiftCache) GetSettings(context.Context, string) (*model.CourseShiftSettings, bool) {
	return nil, false
}

func (noopShiftCache) SetSettings(context.Context, *model.CourseShiftSettings) {
}

func (noopShiftCache) InvalidateSettings(context.Context, string) {
}

func (noopShiftCache) GetMembership(context.Context, string, string) (string, bool) {
	return "", false
}

func (noopShiftCache) MembershipVersion(context.Context, string, string) int64 {
	return 0
}

func (noopShiftCache) SetMembership(context.Context, string, string, string, int64) {
}

func (noopShiftCache) InvalidateMembership(context.Context, string, ...string) {
}
