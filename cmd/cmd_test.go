package cmd

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abr-search/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSampleThenConvert(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "sample.xml")
	csvPath := filepath.Join(dir, "sample.csv")

	out, err := run(t, "sample", "midwife", xmlPath, "--count", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 4 sample records")

	out, err = run(t, "convert", xmlPath, csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully converted 4 records")

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, models.CSVHeader, records[0])
	assert.Equal(t, "midwife Sample 1 Pty Ltd", records[1][2])
	assert.Equal(t, "NSW", records[1][6])
}

func TestConvertMalformed(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "bad.xml")
	csvPath := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(xmlPath, []byte("<ABRPayloadSearchResults>"), 0644))

	_, err := run(t, "convert", xmlPath, csvPath)
	require.Error(t, err)
	_, statErr := os.Stat(csvPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSearchRejectsUnknownState(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	_, err := run(t, "search", "acme", "--state", "ZZ")
	require.Error(t, err)
	searchState = ""
}

func TestSearchRejectsNegativeMaxResults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	_, err := run(t, "search", "acme", "--max-results=-5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max results must not be negative")
	searchMaxResults = 0
}
