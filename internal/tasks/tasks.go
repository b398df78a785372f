// Package tasks reads the artist task list driving a harvesting run.
package tasks

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ArtistTask is one input row: an artist mid plus the fraction of that
// artist's catalog to process. Tasks are consumed once per run, never stored.
type ArtistTask struct {
	SingerMid string
	Weight    float64
}

// Input file column names.
const (
	colSingerMid = "singer_mid"
	colWeight    = "weight"
)

// FindInputFile looks for artists.xlsx, then artists.csv, in dir. Returns
// an error when neither exists.
func FindInputFile(dir string) (string, error) {
	for _, name := range []string{"artists.xlsx", "artists.csv"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no artists.xlsx or artists.csv found in %s", dir)
}

// Read parses an artist task file. Both formats need singer_mid and weight
// columns; rows with an empty singer_mid are dropped. Weights may carry a
// trailing % sign and are clamped into [0,1].
func Read(path string) ([]ArtistTask, error) {
	var rows [][]string
	var err error

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err = readCSV(path)
	} else {
		rows, err = readExcel(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input file %s is empty", path)
	}

	midCol, weightCol := -1, -1
	for i, header := range rows[0] {
		switch strings.TrimSpace(header) {
		case colSingerMid:
			midCol = i
		case colWeight:
			weightCol = i
		}
	}
	if midCol < 0 || weightCol < 0 {
		return nil, fmt.Errorf("input file %s must have %q and %q columns", path, colSingerMid, colWeight)
	}

	var tasks []ArtistTask
	for _, row := range rows[1:] {
		if midCol >= len(row) {
			continue
		}
		mid := strings.TrimSpace(row[midCol])
		if mid == "" {
			continue
		}

		weight := 1.0
		if weightCol < len(row) {
			weight, err = parseWeight(row[weightCol])
			if err != nil {
				return nil, fmt.Errorf("row for artist %s: %w", mid, err)
			}
		}
		tasks = append(tasks, ArtistTask{SingerMid: mid, Weight: weight})
	}
	return tasks, nil
}

func parseWeight(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), "%", "")
	if cleaned == "" {
		return 1.0, nil
	}
	weight, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("bad weight %q: %w", raw, err)
	}
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}
	return weight, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q in %s: %w", sheets[0], path, err)
	}
	return rows, nil
}
