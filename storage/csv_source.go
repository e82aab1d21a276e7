package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"airbnb-dashboard/models"
)

// CSVSource reads per-scope datasets named <city>_<period>s.csv from a directory.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a CSVSource rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Path returns the file a scope is read from.
func (c *CSVSource) Path(scope models.Scope) string {
	return filepath.Join(c.dir, scope.SourceTag()+".csv")
}

// Fetch parses the scope's CSV file. Index columns exported by pandas
// (empty or "Unnamed: n" headers) are dropped.
func (c *CSVSource) Fetch(ctx context.Context, scope models.Scope) ([]models.RawRow, error) {
	path := c.Path(scope)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("csv: %s: %w", path, ErrScopeNotFound)
		}
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	return readRows(ctx, f)
}

func readRows(ctx context.Context, r io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	keep := make([]int, 0, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		header[i] = name
		if name == "" || strings.Contains(name, "Unnamed") {
			continue
		}
		keep = append(keep, i)
	}

	var rows []models.RawRow
	for line := 2; ; line++ {
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		row := make(models.RawRow, len(keep))
		for _, i := range keep {
			if i < len(record) {
				row[header[i]] = record[i]
			} else {
				row[header[i]] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
