package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-shifts/internal/dto"
	"course-shifts/internal/repository"
)

// ── 导入模块业务错误 ──

var (
	ErrImportFileInvalid = errors.New("无法读取 Excel 文件")
	ErrImportNoColumns   = errors.New("表头必须包含 username 与 shift_name 两列")
	ErrImportRowsInvalid = errors.New("导入数据校验失败，未转入任何用户")
	ErrImportPartial     = errors.New("批量转入中途失败")
)

// ImportService 批量转入业务接口
//
// 文件格式：第一个 Sheet，首行表头包含 username、shift_name 两列（大小写不敏感），
// shift_name 为空表示将该用户移出当前 shift。
// 先校验全部行，任一行不合法则不转入任何用户；校验通过后逐行强制转入。
type ImportService interface {
	ImportTransfers(ctx context.Context, courseKey string, r io.Reader) (*dto.ImportTransferResponse, error)
}

type importService struct {
	repo   *repository.Repository
	shifts ShiftService
	logger *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo *repository.Repository, shifts ShiftService, logger *zap.Logger) ImportService {
	return &importService{repo: repo, shifts: shifts, logger: logger}
}

type transferRow struct {
	row       int // Excel 行号，从 1 开始
	username  string
	shiftName string
}

func (s *importService) ImportTransfers(ctx context.Context, courseKey string, r io.Reader) (*dto.ImportTransferResponse, error) {
	rows, err := readTransferRows(r)
	if err != nil {
		return nil, err
	}
	resp := &dto.ImportTransferResponse{Total: len(rows)}

	// 1. 全量校验
	for _, tr := range rows {
		if msg := s.validateRow(ctx, courseKey, tr); msg != "" {
			resp.Errors = append(resp.Errors, dto.ImportTransferRowError{Row: tr.row, Message: msg})
		}
	}
	if len(resp.Errors) > 0 {
		return resp, ErrImportRowsInvalid
	}

	// 2. 逐行强制转入
	for _, tr := range rows {
		if err := s.shifts.EnrollUser(ctx, courseKey, tr.username, tr.shiftName, true); err != nil {
			s.logger.Error("批量转入失败",
				zap.String("course_key", courseKey),
				zap.Int("row", tr.row),
				zap.Int("transferred", resp.Transferred),
				zap.Error(err))
			resp.Errors = append(resp.Errors, dto.ImportTransferRowError{Row: tr.row, Message: err.Error()})
			return resp, fmt.Errorf("%w: 第 %d 行: %v", ErrImportPartial, tr.row, err)
		}
		resp.Transferred++
	}

	s.logger.Info("批量转入完成", zap.String("course_key", courseKey), zap.Int("transferred", resp.Transferred))
	return resp, nil
}

func (s *importService) validateRow(ctx context.Context, courseKey string, tr transferRow) string {
	if tr.username == "" {
		return "username 不能为空"
	}
	if _, err := s.repo.User.GetByUsername(ctx, tr.username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Sprintf("用户 %s 不存在", tr.username)
		}
		return err.Error()
	}
	if tr.shiftName == "" {
		return ""
	}
	if _, err := s.repo.ShiftGroup.GetByName(ctx, courseKey, tr.shiftName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Sprintf("shift %s 在课程 %s 中不存在", tr.shiftName, courseKey)
		}
		return err.Error()
	}
	return ""
}

func readTransferRows(r io.Reader) ([]transferRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFileInvalid, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFileInvalid, err)
	}
	if len(rows) == 0 {
		return nil, ErrImportNoColumns
	}

	userCol, shiftCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "username":
			userCol = i
		case "shift_name":
			shiftCol = i
		}
	}
	if userCol < 0 || shiftCol < 0 {
		return nil, ErrImportNoColumns
	}

	result := make([]transferRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		tr := transferRow{
			row:       i + 2,
			username:  cellAt(row, userCol),
			shiftName: cellAt(row, shiftCol),
		}
		if tr.username == "" && tr.shiftName == "" {
			continue // 空行
		}
		result = append(result, tr)
	}
	return result, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
