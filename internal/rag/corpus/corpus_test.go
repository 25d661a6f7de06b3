package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewchat-core/server/internal/agent/model"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "preprocessed_reviews_kyobo.csv",
		"rating,date,content,cleaned_content\n"+
			"9.5,2024-01-02,원문 그대로,문체가 아름답다\n"+
			"8.0,2024-02-10,raw,읽는 내내 먹먹했다\n")
	writeCSV(t, dir, "preprocessed_reviews_yes24.csv",
		"content,rating\n"+
			"배송이 빨랐어요,10\n")

	rows, err := LoadDir(dir, 500)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Files load in sorted path order, rows in file order.
	assert.Equal(t, "preprocessed_reviews_kyobo.csv:1", rows[0].RowID)
	assert.Equal(t, "문체가 아름답다", rows[0].Text)
	assert.Equal(t, model.SiteKyobo, rows[0].Site)
	assert.Equal(t, 9.5, rows[0].Rating)
	assert.Equal(t, "2024-01-02", rows[0].Date)

	assert.Equal(t, "배송이 빨랐어요", rows[2].Text)
	assert.Equal(t, model.SiteYes24, rows[2].Site)
	assert.Equal(t, 10.0, rows[2].Rating)
	assert.Empty(t, rows[2].Date)
}

func TestLoadDirFallsBackToContentColumn(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "preprocessed_reviews_aladin.csv",
		"content\n정말 좋았어요\n")

	rows, err := LoadDir(dir, 500)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "정말 좋았어요", rows[0].Text)
	assert.Equal(t, model.SiteAladin, rows[0].Site)
}

func TestLoadDirCapsRowsPerFile(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "preprocessed_reviews_kyobo.csv",
		"cleaned_content\n하나\n둘\n셋\n넷\n")

	rows, err := LoadDir(dir, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLoadDirSkipsEmptyText(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "preprocessed_reviews_kyobo.csv",
		"cleaned_content\n\n  \n남는 행\n")

	rows, err := LoadDir(dir, 500)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "남는 행", rows[0].Text)
}

func TestLoadDirMissingDir(t *testing.T) {
	rows, err := LoadDir(filepath.Join(t.TempDir(), "absent"), 500)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLoadDirIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "raw_reviews_kyobo.csv", "content\n무시할 파일\n")

	rows, err := LoadDir(dir, 500)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLoadDirMissingContentColumn(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "preprocessed_reviews_kyobo.csv", "rating,date\n9.5,2024-01-02\n")

	_, err := LoadDir(dir, 500)
	assert.Error(t, err)
}
