// Package corpus loads cleaned review rows produced by the preprocessing
// pipeline. The retriever consumes the text and carries site and row id as
// provenance.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/reviewchat-core/server/internal/agent/model"
	logx "github.com/reviewchat-core/server/pkg/logger"
)

// Row is one cleaned review ready for embedding.
type Row struct {
	RowID  string
	Text   string
	Site   model.Site
	Rating float64
	Date   string
}

const filePattern = "preprocessed_reviews_*.csv"

// LoadDir reads all preprocessed review CSVs under dir, capping rows per file.
// A missing directory or absence of matching files yields an empty corpus,
// not an error; retrieval then degrades to insufficiency drafts.
func LoadDir(dir string, maxRowsPerFile int) ([]Row, error) {
	paths, err := filepath.Glob(filepath.Join(dir, filePattern))
	if err != nil {
		return nil, fmt.Errorf("glob corpus dir %s: %w", dir, err)
	}
	sort.Strings(paths)

	var rows []Row
	for _, path := range paths {
		fileRows, err := loadFile(path, maxRowsPerFile)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}
	logx.Debug().Str("dir", dir).Int("files", len(paths)).Int("rows", len(rows)).Msg("review corpus loaded")
	return rows, nil
}

func loadFile(path string, maxRows int) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	textCol := columnIndex(header, "cleaned_content")
	if textCol < 0 {
		textCol = columnIndex(header, "content")
	}
	if textCol < 0 {
		return nil, fmt.Errorf("corpus file %s has no content column", path)
	}
	ratingCol := columnIndex(header, "rating")
	dateCol := columnIndex(header, "date")

	site := model.ParseSite(strings.TrimSuffix(filepath.Base(path), ".csv"))

	var rows []Row
	for i := 0; maxRows <= 0 || len(rows) < maxRows; i++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d of %s: %w", i+1, path, err)
		}
		if textCol >= len(record) {
			continue
		}
		text := strings.TrimSpace(record[textCol])
		if text == "" {
			continue
		}
		row := Row{
			RowID: fmt.Sprintf("%s:%d", filepath.Base(path), i+1),
			Text:  text,
			Site:  site,
		}
		if ratingCol >= 0 && ratingCol < len(record) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(record[ratingCol]), 64); err == nil {
				row.Rating = v
			}
		}
		if dateCol >= 0 && dateCol < len(record) {
			row.Date = strings.TrimSpace(record[dateCol])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func columnIndex(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}
