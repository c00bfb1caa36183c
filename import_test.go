package hearsay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExport(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const testJSONExport = `{
  "id": 42,
  "type": "private_group",
  "messages": [
    {"from_id": "user7", "text": "history one two"},
    {"from_id": "user7", "text": "/msg a command"},
    {"from_id": "user8", "text": "eight was here"}
  ]
}`

func TestImportFileJSON(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	path := writeExport(t, "result.json", testJSONExport)

	result, err := svc.ImportFile(ctx, path, 0)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, int64(-42), result.ChatID)
	assert.Equal(t, 2, result.Messages)
	assert.NotEmpty(t, result.BatchID)

	text, err := svc.Mimic(ctx, -42, "7", deterministic())
	require.NoError(t, err)
	assert.Equal(t, "history one two", text)

	text, err = svc.Mimic(ctx, -42, "8", deterministic())
	require.NoError(t, err)
	assert.Equal(t, "eight was here", text)
}

func TestImportFileSkipsKnownChecksum(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	path := writeExport(t, "result.json", testJSONExport)

	first, err := svc.ImportFile(ctx, path, 0)
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := svc.ImportFile(ctx, path, 0)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	// Counts are unchanged: nothing was trained twice.
	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].Owners)
}

const testHTMLExport = `<html><body>
<div class="message default clearfix"><div class="body">
  <div class="from_name">Alice</div>
  <div class="text">html history line</div>
</div></div>
</body></html>`

func TestImportFileHTMLRequiresChatID(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	path := writeExport(t, "messages.html", testHTMLExport)

	_, err := svc.ImportFile(ctx, path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chat ID")
}

func TestImportFileHTMLTrainsAggregate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	path := writeExport(t, "messages.html", testHTMLExport)

	result, err := svc.ImportFile(ctx, path, -500)
	require.NoError(t, err)
	assert.Equal(t, int64(-500), result.ChatID)
	assert.Equal(t, 1, result.Messages)

	text, err := svc.Mimic(ctx, -500, AllUsers, deterministic())
	require.NoError(t, err)
	assert.Equal(t, "html history line", text)

	// No per-user attribution exists for HTML imports.
	_, err = svc.Mimic(ctx, -500, "7", deterministic())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestImportFileMissing(t *testing.T) {
	svc := testService(t)
	_, err := svc.ImportFile(context.Background(), "does-not-exist.json", 0)
	assert.Error(t, err)
}
