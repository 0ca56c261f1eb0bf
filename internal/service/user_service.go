package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-shifts/internal/dto"
	"course-shifts/internal/model"
	"course-shifts/internal/repository"
	apperr "course-shifts/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUserImportNoData    = errors.New("Excel 中没有可导入的数据")
	ErrUserImportTooMany   = errors.New("单次导入不能超过 2000 行")
	ErrUserImportBadHeader = errors.New("Excel 表头缺少 username 列")
)

const maxUserImportRows = 2000

// UserService 用户同步业务接口
// 用户主数据以 LMS 为准，本服务只按 username 新建或覆盖 email / is_staff
type UserService interface {
	GetByUsername(ctx context.Context, username string) (*dto.UserResponse, error)
	// SyncUser 返回 created=true 表示新建
	SyncUser(ctx context.Context, req *dto.SyncUserRequest) (*dto.UserResponse, bool, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row      int
	Username string
	Email    string
	IsStaff  bool
}

type userService struct {
	repo     *repository.Repository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, validate: validator.New(), logger: logger}
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Kind: "user", Key: username}
		}
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── SyncUser ──────────────────────

func (s *userService) SyncUser(ctx context.Context, req *dto.SyncUserRequest) (*dto.UserResponse, bool, error) {
	user, created, err := s.upsert(ctx, s.repo, req.Username, req.Email, req.IsStaff)
	if err != nil {
		s.logger.Error("同步用户失败", zap.String("username", req.Username), zap.Error(err))
		return nil, false, err
	}

	if created {
		s.logger.Info("新建用户", zap.String("username", user.Username), zap.String("user_id", user.UserID))
	}
	return toUserResponse(user), created, nil
}

// upsert 不存在则插入；并发插入撞唯一约束时重读并更新
func (s *userService) upsert(ctx context.Context, repo *repository.Repository, username, email string, isStaff bool) (*model.User, bool, error) {
	existing, err := ignoreNotFound(repo.User.GetByUsername(ctx, username))
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		user := &model.User{Username: username, Email: email, IsStaff: isStaff}
		err := repo.User.Create(ctx, user)
		if err == nil {
			return user, true, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, err
		}
		if existing, err = repo.User.GetByUsername(ctx, username); err != nil {
			return nil, false, err
		}
	}

	existing.Email = email
	existing.IsStaff = isStaff
	if err := repo.User.Update(ctx, existing); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// ────────────────────── ImportUsers ──────────────────────

// ParseImportFile 解析导入 Excel 文件，表头需包含 username，email / is_staff 可选
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrUserImportNoData
	}

	colIndex := parseUserHeaderIndex(excelRows[0])
	if colIndex["username"] < 0 {
		return nil, ErrUserImportBadHeader
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{
			Row:      i + 1,
			Username: cellAt(row, colIndex["username"]),
			Email:    cellAt(row, colIndex["email"]),
		}
		switch strings.ToLower(cellAt(row, colIndex["is_staff"])) {
		case "1", "true", "yes", "是":
			item.IsStaff = true
		}

		// 跳过全空行
		if item.Username == "" && item.Email == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrUserImportNoData
	}
	if len(rows) > maxUserImportRows {
		return nil, ErrUserImportTooMany
	}
	return rows, nil
}

// parseUserHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseUserHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"username": -1,
		"email":    -1,
		"is_staff": -1,
	}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "username", "用户名":
			idx["username"] = i
		case "email", "邮箱":
			idx["email"] = i
		case "is_staff", "管理员":
			idx["is_staff"] = i
		}
	}
	return idx
}

func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	// 第一阶段：数据预校验（不接触数据库写操作）
	var validRows []ImportUserRow
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		reason := ""
		switch {
		case row.Username == "":
			reason = "username 为空"
		case len(row.Username) > 150:
			reason = "username 超过 150 字符"
		case seen[row.Username] > 0:
			reason = fmt.Sprintf("与第 %d 行 username 重复", seen[row.Username])
		case row.Email != "" && s.validate.Var(row.Email, "email,max=254") != nil:
			reason = fmt.Sprintf("邮箱格式无效: %s", row.Email)
		}
		if reason != "" {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row.Row, Reason: reason})
			continue
		}
		seen[row.Username] = row.Row
		validRows = append(validRows, row)
	}

	// 第二阶段：在事务中写入所有通过校验的行
	if len(validRows) == 0 {
		return resp, nil
	}
	created, updated := 0, 0
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		for _, row := range validRows {
			_, isNew, err := s.upsert(ctx, txRepo, row.Username, row.Email, row.IsStaff)
			if err != nil {
				s.logger.Error("导入用户写入失败，事务回滚", zap.Int("row", row.Row), zap.Error(err))
				return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", row.Row, err)
			}
			if isNew {
				created++
			} else {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.Created, resp.Updated = created, updated
	s.logger.Info("批量导入用户完成", zap.Int("created", created), zap.Int("updated", updated), zap.Int("failed", resp.Failed))
	return resp, nil
}

// ── 内部辅助方法 ──

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		UserID:   user.UserID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
	}
}
