package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/prp-express/constants"
	"github.com/joseph-ayodele/prp-express/internal/common"
	"github.com/joseph-ayodele/prp-express/internal/entity"
	"github.com/joseph-ayodele/prp-express/internal/utils"
)

var (
	ErrIncomplete = common.NewAppError("INCOMPLETE", "report has empty fields", common.ErrPrecondition)
	ErrEmpty      = common.NewAppError("EMPTY", "no reports to export", common.ErrPrecondition)
)

// DefaultStudentName is used in file names when a report has no student name.
const DefaultStudentName = "Alumno"

const (
	labelColWidth = 35
	valueColWidth = 80
)

// File is one rendered workbook.
type File struct {
	Name     string
	ReportID string
	Data     []byte
}

// Service renders PRP reports as XLSX workbooks.
type Service struct {
	logger      *slog.Logger
	concurrency int
}

func NewService(logger *slog.Logger, concurrency int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Service{logger: logger, concurrency: concurrency}
}

// BuildWorkbook lays out one report as a two-column sheet named PRP, one
// row per exported field, no header row.
func BuildWorkbook(rec entity.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, constants.PRPSheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	sheet := constants.PRPSheetName

	for i, field := range constants.ExportOrder {
		row := i + 1
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]any{field.Info().ExportTitle, rec.Get(field)}); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", labelColWidth)
	_ = f.SetColWidth(sheet, "B", "B", valueColWidth)
	return f, nil
}

// FileName is the download name for one report.
func FileName(rec entity.Report) string {
	name := utils.SafeFileName(rec.DisplayName(DefaultStudentName))
	if name == "" {
		name = DefaultStudentName
	}
	return "PRP_" + name + ".xlsx"
}

// ExportReportXLSX renders a complete report to XLSX bytes.
func (s *Service) ExportReportXLSX(ctx context.Context, rec entity.Report) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !rec.IsComplete() {
		s.logger.Warn("export.xlsx.incomplete", "report_id", rec.ID.String(), "missing", rec.MissingFields())
		return nil, ErrIncomplete
	}
	start := time.Now()

	f, err := BuildWorkbook(rec)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"report_id", rec.ID.String(),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ExportAll renders every report. The collection must be non-empty and every
// report complete; otherwise nothing is rendered. File names are unique
// within the result, in collection order.
func (s *Service) ExportAll(ctx context.Context, recs []entity.Report) ([]File, error) {
	if len(recs) == 0 {
		return nil, ErrEmpty
	}
	for i := range recs {
		if !recs[i].IsComplete() {
			s.logger.Warn("export.bulk.incomplete", "report_id", recs[i].ID.String(), "missing", recs[i].MissingFields())
			return nil, ErrIncomplete
		}
	}
	start := time.Now()

	names := uniqueNames(recs)
	out := make([]File, len(recs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range recs {
		g.Go(func() error {
			data, err := s.ExportReportXLSX(gctx, recs[i])
			if err != nil {
				return fmt.Errorf("export %s: %w", names[i], err)
			}
			out[i] = File{Name: names[i], ReportID: recs[i].ID.String(), Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("export.bulk.ok", "files", len(out), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// WriteAll exports every report into dir and returns the written paths.
func (s *Service) WriteAll(ctx context.Context, dir string, recs []entity.Report) ([]string, error) {
	files, err := s.ExportAll(ctx, recs)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, 0, len(files))
	var errs []error
	for _, file := range files {
		p := filepath.Join(dir, file.Name)
		if err := os.WriteFile(p, file.Data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", p, err))
			continue
		}
		paths = append(paths, p)
	}
	return paths, errors.Join(errs...)
}

// WriteComplete writes only the complete reports into dir, skipping the
// rest, and returns the written paths. Names are unique as in WriteAll.
func (s *Service) WriteComplete(ctx context.Context, dir string, recs []entity.Report) ([]string, error) {
	complete := make([]entity.Report, 0, len(recs))
	for _, rec := range recs {
		if rec.IsComplete() {
			complete = append(complete, rec)
		}
	}
	if len(complete) == 0 {
		return nil, ErrEmpty
	}
	s.logger.Info("export.partial", "complete", len(complete), "skipped", len(recs)-len(complete))
	return s.WriteAll(ctx, dir, complete)
}

// ReadRows returns the PRP sheet of an exported workbook as rows.
func ReadRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return f.GetRows(constants.PRPSheetName)
}

func uniqueNames(recs []entity.Report) []string {
	namer := NewNamer()
	names := make([]string, len(recs))
	for i := range recs {
		names[i] = namer.Next(recs[i])
	}
	return names
}

// Namer hands out workbook names that are unique within one output
// directory, case-insensitively. Clashing names get _2, _3, ... suffixes.
// A record asked for twice keeps its first name. Safe for concurrent use.
type Namer struct {
	mu    sync.Mutex
	used  map[string]bool
	byRec map[uuid.UUID]string
}

func NewNamer() *Namer {
	return &Namer{used: make(map[string]bool), byRec: make(map[uuid.UUID]string)}
}

func (n *Namer) Next(rec entity.Report) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if name, ok := n.byRec[rec.ID]; ok && rec.ID != uuid.Nil {
		return name
	}
	base := FileName(rec)
	name := base
	for k := 2; n.used[strings.ToLower(name)]; k++ {
		name = fmt.Sprintf("%s_%d.xlsx", strings.TrimSuffix(base, ".xlsx"), k)
	}
	n.used[strings.ToLower(name)] = true
	if rec.ID != uuid.Nil {
		n.byRec[rec.ID] = name
	}
	return name
}
