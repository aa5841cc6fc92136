package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"cyberlaw-backend/models"
	"cyberlaw-backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(section, procedure string) *models.PredictionResult {
	return &models.PredictionResult{
		Section:    section,
		Offense:    "Cheating by personation using computer resource",
		Punishment: "Imprisonment up to 3 years and fine up to 1 lakh rupees",
		CaseType:   "Cognizable, Bailable",
		Procedure:  procedure,
	}
}

func newStore(t *testing.T) *storage.LocalStorage {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return store
}

func readReport(t *testing.T, r *Renderer) []byte {
	t.Helper()
	rc, err := r.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestRender_WritesPDF(t *testing.T) {
	store := newStore(t)
	r := NewRenderer(store)

	location, err := r.Render(context.Background(), sampleResult("Section 66D", "File a complaint."))
	require.NoError(t, err)

	want, err := store.Path(DefaultReportKey)
	require.NoError(t, err)
	assert.Equal(t, want, location)

	data := readReport(t, r)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRender_LongProcedurePaginates(t *testing.T) {
	procedure := strings.Repeat("The victim should lodge a complaint with the cyber cell. ", 180)
	require.Greater(t, len(procedure), 10000)

	r := NewRenderer(newStore(t))
	pdf := r.build(sampleResult("Section 66D", procedure))
	require.NoError(t, pdf.Error())
	assert.Greater(t, pdf.PageCount(), 1)

	_, err := r.Render(context.Background(), sampleResult("Section 66D", procedure))
	assert.NoError(t, err)
}

func TestRender_OverwritesPreviousReport(t *testing.T) {
	r := NewRenderer(newStore(t), WithCompression(false))
	ctx := context.Background()

	_, err := r.Render(ctx, sampleResult("Section 43", "first"))
	require.NoError(t, err)
	_, err = r.Render(ctx, sampleResult("Section 67", "second"))
	require.NoError(t, err)

	data := readReport(t, r)
	assert.Contains(t, string(data), "Section: Section 67")
	assert.NotContains(t, string(data), "Section: Section 43")
}

func TestRender_NonLatinTextDoesNotFail(t *testing.T) {
	r := NewRenderer(newStore(t))
	_, err := r.Render(context.Background(), sampleResult("Section 66C", "शिकायत दर्ज करें – “FIR”"))
	assert.NoError(t, err)
}

func TestRender_Concurrent(t *testing.T) {
	r := NewRenderer(newStore(t))
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Render(context.Background(), sampleResult("Section 66", "parallel"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, bytes.HasPrefix(readReport(t, r), []byte("%PDF-")))
}

func TestOpen_BeforeRender(t *testing.T) {
	r := NewRenderer(newStore(t))
	_, err := r.Open(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRender_NilResult(t *testing.T) {
	r := NewRenderer(newStore(t))
	_, err := r.Render(context.Background(), nil)
	assert.Error(t, err)
}

func TestWithKey(t *testing.T) {
	r := NewRenderer(newStore(t), WithKey("reports/latest.pdf"))
	assert.Equal(t, "reports/latest.pdf", r.Key())

	r = NewRenderer(newStore(t), WithKey(""))
	assert.Equal(t, DefaultReportKey, r.Key())
}

type brokenStore struct {
	storage.Storage
	err error
}

func (s brokenStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, s.err
}

func TestOpen_StoreFailureIsNotMissingReport(t *testing.T) {
	denied := errors.New("access denied")
	r := NewRenderer(brokenStore{err: denied})

	_, err := r.Open(context.Background())
	assert.ErrorIs(t, err, denied)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorContains(t, err, "failed to open report")
	assert.NotContains(t, err.Error(), "not yet generated")
}

func TestOpen_MissingReportMessage(t *testing.T) {
	r := NewRenderer(newStore(t))

	_, err := r.Open(context.Background())
	assert.ErrorContains(t, err, "report not yet generated")
}
