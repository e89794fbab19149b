package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ReportService interface {
	ExportSessions(ctx context.Context, req *models.ExportRequest) (*Report, error)
}

type reportService struct {
	records   repositories.SessionRecordRepository
	validator *validator.Validator
	logger    *ServiceLogger
}

// NewReportService builds the export service. records may be nil when no
// database is configured, in which case every export fails.
func NewReportService(records repositories.SessionRecordRepository, v *validator.Validator, logger *slog.Logger) ReportService {
	return &reportService{
		records:   records,
		validator: v,
		logger:    NewServiceLogger(logger, LogConfig{Service: "quiz", Component: "report"}),
	}
}

var reportHeaders = []string{
	"Session ID", "Content ID", "Quiz ID", "Score", "Total", "Percentage",
	"Rating", "Language", "Teacher Test", "Started At", "Completed At", "Results",
}

func (s *reportService) ExportSessions(ctx context.Context, req *models.ExportRequest) (report *Report, err error) {
	op := s.logger.WithOperation(ctx, "export_sessions")
	defer func() { op.LogResult(req.QuizID, "session_report", err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if s.records == nil {
		return nil, ErrReportsUnavailable
	}

	records, err := s.records.List(ctx, repositories.SessionRecordFilters{QuizID: req.QuizID})
	if err != nil {
		return nil, fmt.Errorf("failed to list session records: %w", err)
	}

	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = sessionRow(record)
	}

	switch req.Format {
	case "csv":
		data, err := writeCSV(rows)
		if err != nil {
			return nil, err
		}
		return &Report{Filename: "quiz_sessions.csv", ContentType: ContentTypeCSV, Data: data}, nil
	default:
		data, err := writeExcel(rows)
		if err != nil {
			return nil, err
		}
		return &Report{Filename: "quiz_sessions.xlsx", ContentType: ContentTypeXLSX, Data: data}, nil
	}
}

func sessionRow(record *models.SessionRecord) []string {
	var results []bool
	_ = json.Unmarshal(record.Results, &results)
	marks := make([]string, len(results))
	for i, ok := range results {
		marks[i] = "0"
		if ok {
			marks[i] = "1"
		}
	}

	teacher := "no"
	if record.TeacherTestMode {
		teacher = "yes"
	}

	return []string{
		record.ID,
		record.ContentID,
		record.QuizID,
		fmt.Sprint(record.Score),
		fmt.Sprint(record.Total),
		fmt.Sprintf("%.1f", record.Percentage),
		record.Rating,
		record.Language,
		teacher,
		record.StartedAt.Format("2006-01-02 15:04:05"),
		record.CompletedAt.Format("2006-01-02 15:04:05"),
		strings.Join(marks, ""),
	}
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(reportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return []byte(buf.String()), nil
}

func writeExcel(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sessions"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	for i, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
