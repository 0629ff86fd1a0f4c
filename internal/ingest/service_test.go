package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/prp-express/internal/session"
)

type call struct {
	name, text, subject string
}

type fakeSink struct {
	mu      sync.Mutex
	subject string
	calls   []call
	ids     map[uuid.UUID]bool
}

func (f *fakeSink) IngestFile(_ context.Context, name, rawText, subject string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{name, rawText, subject})
	id := uuid.New()
	if f.ids == nil {
		f.ids = make(map[uuid.UUID]bool)
	}
	f.ids[id] = true
	return id
}

func (f *fakeSink) Subject() string { return f.subject }

func (f *fakeSink) Has(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[id]
}

func (f *fakeSink) remove(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSink) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.name
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngestContent(t *testing.T) {
	sink := &fakeSink{subject: "Math"}
	ing := NewFSIngestor(sink, quietLogger())
	ctx := context.Background()

	res, err := ing.IngestContent(ctx, "Ana.xlsx", workbook(t, map[string][][]any{"PSP": {{"Math", "refuerzo"}}}))
	require.NoError(t, err)
	assert.NotEmpty(t, res.ReportID)
	assert.False(t, res.Skipped)
	require.Len(t, sink.calls, 1)
	assert.Equal(t, call{"Ana.xlsx", "Math refuerzo", "Math"}, sink.calls[0])

	res, err = ing.IngestContent(ctx, "Luis.xlsx", workbook(t, map[string][][]any{"Hoja1": {{"x"}}}))
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Len(t, sink.calls, 1, "workbook without PSP sheet adds no record")

	res, err = ing.IngestContent(ctx, "old.xls", []byte("not really a workbook"))
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.NotEmpty(t, res.Err)

	_, err = ing.IngestContent(ctx, "scan.pdf", []byte("%PDF"))
	assert.Error(t, err)
}

func TestIngestContent_Dedup(t *testing.T) {
	sink := &fakeSink{subject: "Math"}
	ing := NewFSIngestor(sink, quietLogger())

	first, err := ing.IngestContent(context.Background(), "a.txt", []byte("same"))
	require.NoError(t, err)
	second, err := ing.IngestContent(context.Background(), "b.txt", []byte("same"))
	require.NoError(t, err)

	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.ReportID, second.ReportID)
	assert.Len(t, sink.calls, 1)
}

func TestIngestContent_ReingestAfterRemoval(t *testing.T) {
	sink := &fakeSink{subject: "Math"}
	ing := NewFSIngestor(sink, quietLogger())
	ctx := context.Background()

	first, err := ing.IngestContent(ctx, "a.txt", []byte("same"))
	require.NoError(t, err)
	sink.remove(uuid.MustParse(first.ReportID))

	second, err := ing.IngestContent(ctx, "a.txt", []byte("same"))
	require.NoError(t, err)
	assert.False(t, second.Deduplicated)
	assert.NotEqual(t, first.ReportID, second.ReportID)
	assert.Equal(t, 2, sink.count())

	third, err := ing.IngestContent(ctx, "a.txt", []byte("same"))
	require.NoError(t, err)
	assert.True(t, third.Deduplicated)
	assert.Equal(t, second.ReportID, third.ReportID)
}

func TestIngestContent_ReingestAfterClearNotFound(t *testing.T) {
	// Without a queue every extraction resolves as not found.
	store := session.NewStore(nil, nil, quietLogger())
	store.SetSubject("Math")
	ing := NewFSIngestor(store, quietLogger())
	ctx := context.Background()

	first, err := ing.IngestContent(ctx, "Ana.txt", []byte("psp text"))
	require.NoError(t, err)
	require.True(t, store.HasNotFound())
	assert.Equal(t, 1, store.ClearNotFound())
	assert.Zero(t, store.Len())

	second, err := ing.IngestContent(ctx, "Ana.txt", []byte("psp text"))
	require.NoError(t, err)
	assert.False(t, second.Deduplicated)
	assert.NotEqual(t, first.ReportID, second.ReportID)
	assert.Equal(t, 1, store.Len())
	assert.True(t, store.Has(uuid.MustParse(second.ReportID)))
}

func TestIngestContent_ConcurrentSameContent(t *testing.T) {
	sink := &fakeSink{subject: "Math"}
	ing := NewFSIngestor(sink, quietLogger())

	const n = 16
	results := make([]IngestionResult, n)
	var wg sync.WaitGroup
	for k := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ing.IngestContent(context.Background(), "a.txt", []byte("same"))
			assert.NoError(t, err)
			results[k] = res
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, sink.count())
	fresh := 0
	for _, res := range results {
		assert.Equal(t, results[0].ReportID, res.ReportID)
		if !res.Deduplicated {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
	assert.Empty(t, ing.claims)
}

func TestIngestContent_RequiresSubject(t *testing.T) {
	ing := NewFSIngestor(&fakeSink{}, quietLogger())
	_, err := ing.IngestContent(context.Background(), "a.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrNoSubject)
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	write := func(rel string, data []byte) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
	write("Ana.txt", []byte("psp de Ana"))
	write("sub/Luis.xlsx", workbook(t, map[string][][]any{"psp": {{"a", "b"}, {"c"}}}))
	write("sub/sin_psp.xlsx", workbook(t, map[string][][]any{"Otra": {{"x"}}}))
	write("notes.md", []byte("ignored"))
	write(".hidden/Eva.txt", []byte("hidden"))

	sink := &fakeSink{subject: "Math"}
	ing := NewFSIngestor(sink, quietLogger())

	results, stats, err := ing.IngestDirectory(context.Background(), root, true)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.EqualValues(t, 3, stats.Matched)
	assert.EqualValues(t, 2, stats.Succeeded)
	assert.EqualValues(t, 1, stats.Skipped)
	assert.EqualValues(t, 0, stats.Failed)
	assert.ElementsMatch(t, []string{"Ana.txt", "Luis.xlsx"}, sink.names())

	_, _, err = ing.IngestDirectory(context.Background(), "  ", true)
	assert.Error(t, err)
}
