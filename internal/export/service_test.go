package export

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/prp-express/constants"
	"github.com/joseph-ayodele/prp-express/internal/entity"
)

func newTestService() *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), 2)
}

func completeReport(name string) entity.Report {
	r := entity.NewReport(name, "psp", "Math")
	r.ResponsibleTeacher = "Sra. Ruiz"
	r.PreviousActions = "refuerzo"
	r.DifficultiesStrengths = "cálculo"
	r.UnmetEvaluationCriteria = "CE1"
	r.MethodologicalProposal = "cooperativo"
	r.DetailedEvaluationPlan = "examen oral"
	return r
}

func TestBuildWorkbook_Layout(t *testing.T) {
	rec := completeReport("Ana")
	f, err := BuildWorkbook(rec)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{constants.PRPSheetName}, f.GetSheetList())

	rows, err := f.GetRows(constants.PRPSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"MATERIA", "Math"}, rows[0])
	assert.Equal(t, []string{"CURSA", "YES"}, rows[1])
	assert.Equal(t, []string{"DOCENTE", "Sra. Ruiz"}, rows[2])
	assert.Equal(t, []string{"PLAN DE EVALUACIÓN DETALLADO", "examen oral"}, rows[7])

	w, err := f.GetColWidth(constants.PRPSheetName, "A")
	require.NoError(t, err)
	assert.InDelta(t, 35, w, 0.01)
	w, err = f.GetColWidth(constants.PRPSheetName, "B")
	require.NoError(t, err)
	assert.InDelta(t, 80, w, 0.01)
}

func TestExportReportXLSX(t *testing.T) {
	svc := newTestService()

	t.Run("complete", func(t *testing.T) {
		data, err := svc.ExportReportXLSX(context.Background(), completeReport("Ana"))
		require.NoError(t, err)
		rows, err := ReadRows(data)
		require.NoError(t, err)
		assert.Equal(t, []string{"MATERIA", "Math"}, rows[0])
	})

	t.Run("incomplete", func(t *testing.T) {
		rec := completeReport("Ana")
		rec.DetailedEvaluationPlan = "  "
		_, err := svc.ExportReportXLSX(context.Background(), rec)
		assert.ErrorIs(t, err, ErrIncomplete)
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "PRP_Ana.xlsx", FileName(completeReport("Ana")))
	assert.Equal(t, "PRP_Alumno.xlsx", FileName(completeReport("  ")))
	assert.Equal(t, "PRP_a_b.xlsx", FileName(completeReport("a/b")))
}

func TestExportAll(t *testing.T) {
	svc := newTestService()

	_, err := svc.ExportAll(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmpty)

	bad := completeReport("Luis")
	bad.MethodologicalProposal = ""
	_, err = svc.ExportAll(context.Background(), []entity.Report{completeReport("Ana"), bad})
	assert.ErrorIs(t, err, ErrIncomplete)

	files, err := svc.ExportAll(context.Background(), []entity.Report{
		completeReport("Ana"), completeReport("Ana"), completeReport("Ana_2"), completeReport(""),
	})
	require.NoError(t, err)
	require.Len(t, files, 4)
	assert.Equal(t, "PRP_Ana.xlsx", files[0].Name)
	assert.Equal(t, "PRP_Ana_2.xlsx", files[1].Name)
	assert.Equal(t, "PRP_Ana_2_2.xlsx", files[2].Name)
	assert.Equal(t, "PRP_Alumno.xlsx", files[3].Name)
	for _, f := range files {
		assert.NotEmpty(t, f.Data)
	}
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := newTestService().WriteAll(context.Background(), dir, []entity.Report{completeReport("Ana"), completeReport("Luis")})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	data, err := os.ReadFile(filepath.Join(dir, "PRP_Luis.xlsx"))
	require.NoError(t, err)
	rows, err := ReadRows(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"MATERIA", "Math"}, rows[0])
}

func TestWriteComplete(t *testing.T) {
	dir := t.TempDir()
	incomplete := entity.NewReport("Luis", "psp", "Math")
	recs := []entity.Report{completeReport(""), incomplete, completeReport(" ")}

	paths, err := newTestService().WriteComplete(context.Background(), dir, recs)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "PRP_Alumno.xlsx"),
		filepath.Join(dir, "PRP_Alumno_2.xlsx"),
	}, paths)
	_, err = os.Stat(filepath.Join(dir, "PRP_Luis.xlsx"))
	assert.True(t, os.IsNotExist(err))

	_, err = newTestService().WriteComplete(context.Background(), dir, []entity.Report{incomplete})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestNamer(t *testing.T) {
	n := NewNamer()
	ana := completeReport("Ana")
	assert.Equal(t, "PRP_Ana.xlsx", n.Next(ana))
	assert.Equal(t, "PRP_Ana.xlsx", n.Next(ana), "same record keeps its name")
	assert.Equal(t, "PRP_ana_2.xlsx", n.Next(completeReport("ana")))
	assert.Equal(t, "PRP_Alumno.xlsx", n.Next(completeReport("")))
	assert.Equal(t, "PRP_Alumno_2.xlsx", n.Next(completeReport("")))
}
