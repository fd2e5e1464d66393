package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

func ParseExportFormat(value string) (ExportFormat, error) {
	switch ExportFormat(value) {
	case "", ExportCSV:
		return ExportCSV, nil
	case ExportXLSX:
		return ExportXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
	}
}

func (f ExportFormat) ContentType() string {
	switch f {
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

func (f ExportFormat) Filename() string {
	return "dyslexia_training_data." + string(f)
}

const (
	usesTTSFrequentlyAbove = 2
	slowResponderSeconds   = 300
	exportSheetName        = "Evaluations"
)

// Fixed leading columns; per-question columns follow, ordered by question id.
var exportBaseColumns = []string{
	"record_id",
	"user_id",
	"dyslexia_type",
	"age",
	"created_at",
	"tts_usage_count",
	"tts_questions_used_count",
	"accuracy",
	"total_responses",
	"empty_responses",
	"completion_time",
	"avg_response_time",
	"score",
	"total_questions",
	"percentage",
	"uses_tts_frequently",
	"slow_responder",
}

// ExportRow is one flattened evaluation record. Values are string, int,
// float64 or nil for cells with no value.
type ExportRow map[string]interface{}

type ExportTable struct {
	Columns []string
	Rows    []ExportRow
}

// Cells returns the row's values in column order.
func (t *ExportTable) Cells(row ExportRow) []interface{} {
	cells := make([]interface{}, len(t.Columns))
	for i, column := range t.Columns {
		cells[i] = row[column]
	}
	return cells
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

func (s *exportService) BuildTable(ctx context.Context, filters repositories.EvaluationFilters) (*ExportTable, error) {
	records, err := s.repo.Evaluation().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}

	table := &ExportTable{Rows: make([]ExportRow, 0, len(records))}
	questionIDs := map[int]struct{}{}
	for _, record := range records {
		row, ids, err := FlattenRecord(record)
		if err != nil {
			s.logger.Warn("Skipping undecodable evaluation record", "record_id", record.ID, "error", err)
			continue
		}
		for _, id := range ids {
			questionIDs[id] = struct{}{}
		}
		table.Rows = append(table.Rows, row)
	}

	table.Columns = append([]string{}, exportBaseColumns...)
	for _, id := range sortedIDs(questionIDs) {
		table.Columns = append(table.Columns, questionColumns(id)...)
	}
	return table, nil
}

func (s *exportService) Write(ctx context.Context, w io.Writer, format ExportFormat, filters repositories.EvaluationFilters) error {
	table, err := s.BuildTable(ctx, filters)
	if err != nil {
		return err
	}

	switch format {
	case ExportCSV:
		err = writeCSV(w, table)
	case ExportXLSX:
		err = writeXLSX(w, table)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return err
	}

	s.logger.Info("Exported evaluation records", "format", format, "rows", len(table.Rows))
	return nil
}

// FlattenRecord derives the export row of one record and reports the
// question ids it has per-question columns for.
func FlattenRecord(record *models.EvaluationRecord) (ExportRow, []int, error) {
	details, err := record.DecodeResponses()
	if err != nil {
		return nil, nil, err
	}
	assistive, err := record.DecodeAssistiveTech()
	if err != nil {
		return nil, nil, err
	}
	latencies, err := record.DecodeResponseTimes()
	if err != nil {
		return nil, nil, err
	}

	empty := 0
	for _, detail := range details {
		if detail.Submitted == "" {
			empty++
		}
	}

	avgLatency := 0.0
	if len(latencies) > 0 {
		total := 0.0
		for _, seconds := range latencies {
			total += seconds
		}
		avgLatency = total / float64(len(latencies))
	}

	row := ExportRow{
		"record_id":                int(record.ID),
		"user_id":                  int(record.UserID),
		"dyslexia_type":            string(record.Subtype),
		"age":                      nil,
		"created_at":               record.CreatedAt.UTC().Format(time.RFC3339),
		"tts_usage_count":          record.AssistiveTechCount,
		"tts_questions_used_count": len(assistive),
		"accuracy":                 record.Accuracy,
		"total_responses":          len(details),
		"empty_responses":          empty,
		"completion_time":          record.CompletionTime,
		"avg_response_time":        avgLatency,
		"score":                    record.Score,
		"total_questions":          record.TotalQuestions,
		"percentage":               record.Percentage,
		"uses_tts_frequently":      flag(record.AssistiveTechCount > usesTTSFrequentlyAbove),
		"slow_responder":           flag(record.CompletionTime > slowResponderSeconds),
	}
	if record.Profile != nil && record.Profile.Age != nil {
		row["age"] = *record.Profile.Age
	}

	ids := models.SortedQuestionIDs(details)
	for _, id := range ids {
		detail := details[id]
		columns := questionColumns(id)
		row[columns[0]] = utf8.RuneCountInString(detail.Submitted)
		row[columns[1]] = detail.LatencySeconds
		row[columns[2]] = flag(detail.UsedAssistiveTech)
	}
	return row, ids, nil
}

func questionColumns(id int) []string {
	prefix := "q" + strconv.Itoa(id)
	return []string{
		prefix + "_response_length",
		prefix + "_processing_time",
		prefix + "_used_tts",
	}
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ===== WRITERS =====

func writeCSV(w io.Writer, table *ExportTable) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, value := range table.Cells(row) {
			record[i] = formatCell(value)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

func formatCell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func writeXLSX(w io.Writer, table *ExportTable) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheetName)
	if err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = column
	}
	if err := f.SetSheetRow(exportSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write Excel header: %w", err)
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		cells := table.Cells(row)
		if err := f.SetSheetRow(exportSheetName, cell, &cells); err != nil {
			return fmt.Errorf("failed to write Excel row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}
