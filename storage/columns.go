package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"airbnb-dashboard/models"
)

// listingColumns is the listings table layout shared by both SQL backends.
// realSum keeps its mixed-case name, so every column is quoted.
var listingColumns = []string{
	"city", "period", "lat", "lng", "room_type",
	"person_capacity", "realSum", "guest_satisfaction_overall",
	"cleanliness_rating", "dist", "metro_dist",
	"attr_index", "rest_index", "bedrooms",
}

func quotedColumns() string {
	q := make([]string, len(listingColumns))
	for i, c := range listingColumns {
		q[i] = `"` + c + `"`
	}
	return strings.Join(q, ", ")
}

func nullable(n models.Number) any {
	if v, ok := n.Get(); ok {
		return v
	}
	return nil
}

func recordArgs(r models.ListingRecord) []any {
	return []any{
		r.City, string(r.Period), nullable(r.Lat), nullable(r.Lng), r.RoomType,
		nullable(r.PersonCapacity), nullable(r.RealSum), nullable(r.GuestSatisfactionOverall),
		nullable(r.CleanlinessRating), nullable(r.Dist), nullable(r.MetroDist),
		nullable(r.AttrIndex), nullable(r.RestIndex), nullable(r.Bedrooms),
	}
}

// insertStatement builds a multi-row INSERT; placeholder returns the n-th
// (1-based) bind marker for the driver.
func insertStatement(batch []models.ListingRecord, placeholder func(n int) string) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*len(listingColumns))

	for idx, r := range batch {
		base := idx * len(listingColumns)
		marks := make([]string, len(listingColumns))
		for i := range listingColumns {
			marks[i] = placeholder(base + i + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(marks, ",")+")")
		valueArgs = append(valueArgs, recordArgs(r)...)
	}

	query := fmt.Sprintf("INSERT INTO listings (%s) VALUES %s",
		quotedColumns(), strings.Join(valueStrings, ","))
	return query, valueArgs
}

// scanRawRows reads every row into a RawRow keyed by column name.
func scanRawRows(rows *sql.Rows) ([]models.RawRow, error) {
	var out []models.RawRow
	for rows.Next() {
		values := make([]any, len(listingColumns))
		ptrs := make([]any, len(listingColumns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(models.RawRow, len(listingColumns))
		for i, col := range listingColumns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
