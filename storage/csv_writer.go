package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"airbnb-dashboard/models"
)

// CSVWriter exports listing records to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	header := append(append([]string(nil), listingColumns...), "_source")
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends records in order. Invalid numbers are written as empty cells.
func (c *CSVWriter) Write(records []models.ListingRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		row := []string{
			r.City,
			string(r.Period),
			formatNumber(r.Lat),
			formatNumber(r.Lng),
			r.RoomType,
			formatNumber(r.PersonCapacity),
			formatNumber(r.RealSum),
			formatNumber(r.GuestSatisfactionOverall),
			formatNumber(r.CleanlinessRating),
			formatNumber(r.Dist),
			formatNumber(r.MetroDist),
			formatNumber(r.AttrIndex),
			formatNumber(r.RestIndex),
			formatNumber(r.Bedrooms),
			r.Source,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatNumber(n models.Number) string {
	v, ok := n.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
