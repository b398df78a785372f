package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFindInputFilePrefersExcel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "artists.csv", "singer_mid,weight\n")
	writeFile(t, dir, "artists.xlsx", "placeholder")

	path, err := FindInputFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "artists.xlsx"), path)
}

func TestFindInputFileFallsBackToCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "artists.csv", "singer_mid,weight\n")

	path, err := FindInputFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "artists.csv"), path)
}

func TestFindInputFileMissing(t *testing.T) {
	_, err := FindInputFile(t.TempDir())
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "artists.csv",
		"singer_mid,weight\n"+
			"0025NhlN2yWrP4,0.25\n"+
			"001fNHEf1SFEFN,50%\n"+
			",0.5\n"+
			"003Nz2So3XXYek,\n"+
			"002J4UUk29y8BY,-3\n")

	artistTasks, err := Read(path)
	require.NoError(t, err)
	require.Len(t, artistTasks, 4)

	assert.Equal(t, ArtistTask{SingerMid: "0025NhlN2yWrP4", Weight: 0.25}, artistTasks[0])
	// Percent signs are stripped, then the value clamps into [0,1].
	assert.Equal(t, ArtistTask{SingerMid: "001fNHEf1SFEFN", Weight: 1.0}, artistTasks[1])
	// Empty weight defaults to the full catalog.
	assert.Equal(t, ArtistTask{SingerMid: "003Nz2So3XXYek", Weight: 1.0}, artistTasks[2])
	// Negative weights clamp to zero.
	assert.Equal(t, ArtistTask{SingerMid: "002J4UUk29y8BY", Weight: 0.0}, artistTasks[3])
}

func TestReadCSVExtraColumnsAndReorderedHeader(t *testing.T) {
	path := writeFile(t, t.TempDir(), "artists.csv",
		"name,weight,singer_mid\n"+
			"周杰伦,0.1,0025NhlN2yWrP4\n")

	artistTasks, err := Read(path)
	require.NoError(t, err)
	require.Len(t, artistTasks, 1)
	assert.Equal(t, "0025NhlN2yWrP4", artistTasks[0].SingerMid)
	assert.Equal(t, 0.1, artistTasks[0].Weight)
}

func TestReadCSVMissingColumns(t *testing.T) {
	path := writeFile(t, t.TempDir(), "artists.csv", "mid,ratio\nx,1\n")

	_, err := Read(path)
	assert.Error(t, err)
}

func TestReadCSVBadWeight(t *testing.T) {
	path := writeFile(t, t.TempDir(), "artists.csv",
		"singer_mid,weight\n0025NhlN2yWrP4,lots\n")

	_, err := Read(path)
	assert.Error(t, err)
}

func TestReadCSVEmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "artists.csv", "")

	_, err := Read(path)
	assert.Error(t, err)
}

func TestReadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artists.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"singer_mid", "weight"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"0025NhlN2yWrP4", "0.25"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"001fNHEf1SFEFN", "100%"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	artistTasks, err := Read(path)
	require.NoError(t, err)
	require.Len(t, artistTasks, 2)
	assert.Equal(t, ArtistTask{SingerMid: "0025NhlN2yWrP4", Weight: 0.25}, artistTasks[0])
	assert.Equal(t, ArtistTask{SingerMid: "001fNHEf1SFEFN", Weight: 1.0}, artistTasks[1])
}

func TestParseWeight(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"0.5", 0.5},
		{" 0.5 ", 0.5},
		{"0.5%", 0.5},
		{"", 1.0},
		{"2", 1.0},
		{"-1", 0.0},
	}
	for _, tc := range cases {
		got, err := parseWeight(tc.raw)
		require.NoError(t, err, "raw=%q", tc.raw)
		assert.Equal(t, tc.want, got, "raw=%q", tc.raw)
	}
}
