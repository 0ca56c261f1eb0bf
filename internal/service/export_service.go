package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-shifts/internal/model"
	"course-shifts/internal/repository"
	apperr "course-shifts/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoShifts     = errors.New("该课程暂无 shift")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportRoster 导出 shift 与成员名单为 Excel
	ExportRoster(ctx context.Context, courseKey string) (*bytes.Buffer, string, error)
	// ExportCalendar 导出各 shift 的报名窗口为 iCalendar
	ExportCalendar(ctx context.Context, courseKey string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

func (s *exportService) load(ctx context.Context, courseKey string) (*model.CourseShiftSettings, []model.CourseShiftGroup, error) {
	settings, err := s.repo.ShiftSettings.GetByCourse(ctx, courseKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &apperr.NotFoundError{Kind: "settings", Key: courseKey}
		}
		s.logger.Error("查询 shift 设置失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, nil, err
	}
	shifts, err := s.repo.ShiftGroup.ListByCourse(ctx, courseKey)
	if err != nil {
		s.logger.Error("列出 shift 失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, nil, err
	}
	if len(shifts) == 0 {
		return nil, nil, ErrExportNoShifts
	}
	return settings, shifts, nil
}

// ═══════════════════════════════════════════════════════════
// ExportRoster 导出名单为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "shifts"：名称 | 开始日期 | 偏移天数 | 报名开始 | 报名截止 | 人数
//   - Sheet "成员"：用户名 | 邮箱 | shift | 加入时间

func (s *exportService) ExportRoster(ctx context.Context, courseKey string) (*bytes.Buffer, string, error) {
	settings, shifts, err := s.load(ctx, courseKey)
	if err != nil {
		return nil, "", err
	}
	members, err := s.repo.ShiftMembership.ListByCourse(ctx, courseKey)
	if err != nil {
		s.logger.Error("列出成员失败", zap.String("course_key", courseKey), zap.Error(err))
		return nil, "", err
	}

	counts := make(map[string]int, len(shifts))
	for _, m := range members {
		counts[m.ShiftID]++
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── shifts ──
	shiftSheet := "shifts"
	idx, _ := f.NewSheet(shiftSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"名称", "开始日期", "偏移天数", "报名开始", "报名截止", "人数"}
	writeHeader(f, shiftSheet, headers, headerStyle)
	f.SetColWidth(shiftSheet, "A", "A", 36)
	f.SetColWidth(shiftSheet, "B", "E", 14)

	for i := range shifts {
		sh := &shifts[i]
		open, finish := EnrollmentWindow(sh, settings)
		row := i + 2
		f.SetCellValue(shiftSheet, cell("A", row), sh.Name)
		f.SetCellValue(shiftSheet, cell("B", row), FormatDate(sh.StartDate))
		f.SetCellValue(shiftSheet, cell("C", row), sh.DaysShift)
		f.SetCellValue(shiftSheet, cell("D", row), FormatDate(addDays(open, 1)))
		f.SetCellValue(shiftSheet, cell("E", row), FormatDate(finish))
		f.SetCellValue(shiftSheet, cell("F", row), counts[sh.ShiftID])
	}

	// ── 成员 ──
	memberSheet := "成员"
	f.NewSheet(memberSheet)
	writeHeader(f, memberSheet, []string{"用户名", "邮箱", "shift", "加入时间"}, headerStyle)
	f.SetColWidth(memberSheet, "A", "B", 24)
	f.SetColWidth(memberSheet, "C", "C", 36)
	f.SetColWidth(memberSheet, "D", "D", 20)

	for i, m := range members {
		row := i + 2
		username, email := m.UserID, ""
		if m.User != nil {
			username, email = m.User.Username, m.User.Email
		}
		f.SetCellValue(memberSheet, cell("A", row), username)
		f.SetCellValue(memberSheet, cell("B", row), email)
		f.SetCellValue(memberSheet, cell("C", row), membershipShiftName(&members[i]))
		f.SetCellValue(memberSheet, cell("D", row), m.CreatedAt.Format("2006-01-02 15:04"))
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("shifts_%s.xlsx", courseKey)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 导出报名窗口为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个 shift 一个全天事件，覆盖可报名的日期：
// DTSTART = start-before+1，DTEND = start+after+1（DTEND 不含当天）

func (s *exportService) ExportCalendar(ctx context.Context, courseKey string) (*bytes.Buffer, string, error) {
	settings, shifts, err := s.load(ctx, courseKey)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//course-shifts//shift enrollment//ZH")

	stamp := s.now().UTC()
	for i := range shifts {
		sh := &shifts[i]
		open, finish := EnrollmentWindow(sh, settings)

		event := cal.AddEvent(fmt.Sprintf("%s@course-shifts", sh.ShiftID))
		event.SetDtStampTime(stamp)
		event.SetSummary(fmt.Sprintf("%s 报名", sh.Name))
		event.SetDescription(fmt.Sprintf("课程 %s，shift 开始日期 %s，日期偏移 %d 天",
			courseKey, FormatDate(sh.StartDate), sh.DaysShift))
		event.SetAllDayStartAt(addDays(open, 1))
		event.SetAllDayEndAt(addDays(finish, 1))
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("shifts_%s.ics", courseKey)
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), style)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
