package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gh674055/sports-compare-bots/internal/model"
)

const bradyDoc = `{"subject": "Tom Brady", "granularity": "season",
 "periods": [{"year": 2007, "playoffs": false, "team": "NWE", "result": "w",
              "stats": {"Passing": {"Cmp": 398, "Att": 578}, "Shared": {"G": 16}}},
             {"year": 2007, "playoffs": true, "team": "NWE",
              "stats": {"Passing": {"Cmp": 77}}}]}`

func TestParseSingleDocument(t *testing.T) {
	docs, err := Parse([]byte(bradyDoc))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "Tom Brady", doc.Subject)
	assert.Equal(t, model.GranularitySeason, doc.Granularity)
	require.Len(t, doc.Periods, 2)
	assert.Equal(t, 2007, doc.Periods[0].Year)
	assert.Equal(t, model.ResultWin, doc.Periods[0].Result)
	assert.Equal(t, 578.0, doc.Periods[0].Value("Passing", "Att"))
	assert.Equal(t, 16.0, doc.Periods[0].Value("Shared", "G"))
	assert.True(t, doc.Periods[1].Playoffs)
}

func TestParseArray(t *testing.T) {
	docs, err := Parse([]byte(`[` + bradyDoc + `, {"subject": "Drew Brees", "granularity": "game", "periods": []}]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, model.GranularityGame, docs[1].Granularity)
	assert.Empty(t, docs[1].Periods)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"invalid json":   `{"subject":`,
		"scalar":         `42`,
		"no subject":     `{"granularity": "season"}`,
		"bad gran":       `{"subject": "x", "granularity": "week"}`,
		"no year":        `{"subject": "x", "periods": [{"stats": {}}]}`,
		"bad result":     `{"subject": "x", "periods": [{"year": 2000, "result": "X"}]}`,
		"string stat":    `{"subject": "x", "periods": [{"year": 2000, "stats": {"Passing": {"Yds": "12"}}}]}`,
		"stats not dict": `{"subject": "x", "periods": [{"year": 2000, "stats": {"Passing": 3}}]}`,
	}
	for name, src := range cases {
		_, err := Parse([]byte(src))
		assert.Error(t, err, name)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brady.json")
	require.NoError(t, os.WriteFile(path, []byte(bradyDoc), 0o644))
	docs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

type fakeWriter struct {
	batches   []string
	subjects  []string
	deleted   []string
	calls     int
	failAt    int
	deleteErr error
}

func (f *fakeWriter) InsertPeriods(_ context.Context, batch, subject string, _ model.Granularity, periods []model.Period) (int, error) {
	f.calls++
	if f.calls == f.failAt {
		return 0, errors.New("disk full")
	}
	f.batches = append(f.batches, batch)
	f.subjects = append(f.subjects, subject)
	return len(periods), nil
}

func (f *fakeWriter) DeleteBatch(_ context.Context, batch string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleted = append(f.deleted, batch)
	return int64(len(f.batches)), nil
}

func TestImport(t *testing.T) {
	docs, err := Parse([]byte(`[` + bradyDoc + `,` + bradyDoc + `]`))
	require.NoError(t, err)

	w := &fakeWriter{}
	batch, n, err := Import(context.Background(), w, docs)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	_, err = uuid.Parse(batch)
	require.NoError(t, err)
	assert.Equal(t, []string{batch, batch}, w.batches)
	assert.Equal(t, []string{"Tom Brady", "Tom Brady"}, w.subjects)
	assert.Empty(t, w.deleted)

	w = &fakeWriter{failAt: 1}
	_, n, err = Import(context.Background(), w, docs)
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, w.deleted)
}

func TestImportRollsBackPartialBatch(t *testing.T) {
	docs, err := Parse([]byte(`[` + bradyDoc + `,` + bradyDoc + `,` + bradyDoc + `]`))
	require.NoError(t, err)

	w := &fakeWriter{failAt: 2}
	batch, n, err := Import(context.Background(), w, docs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, n)
	assert.Equal(t, []string{batch}, w.deleted)
	assert.Equal(t, 2, w.calls)
}

func TestImportReportsBatchWhenRollbackFails(t *testing.T) {
	docs, err := Parse([]byte(`[` + bradyDoc + `,` + bradyDoc + `]`))
	require.NoError(t, err)

	w := &fakeWriter{failAt: 2, deleteErr: errors.New("database is locked")}
	batch, n, err := Import(context.Background(), w, docs)
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, err.Error(), batch)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Empty(t, w.deleted)
}
