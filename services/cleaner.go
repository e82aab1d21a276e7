package services

import (
	"strings"
	"unicode"

	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

// RequiredColumns are the listing columns every source must provide, in
// storage order. Missing ones are filled with nil.
var RequiredColumns = []string{
	"city", "period", "lat", "lng", "room_type",
	"person_capacity", "realSum", "guest_satisfaction_overall",
	"cleanliness_rating", "dist", "metro_dist",
	"attr_index", "rest_index", "bedrooms",
}

// Cleaner coerces raw loader rows into ListingRecords.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Coerce converts one raw row into a ListingRecord tagged with scope.
// Unparseable numeric fields become invalid Numbers, never zero.
func (c *Cleaner) Coerce(row models.RawRow, scope models.Scope) models.ListingRecord {
	rec := models.ListingRecord{
		City:     scope.City,
		Period:   scope.Period,
		RoomType: normaliseText(stringField(row["room_type"])),
		Source:   scope.SourceTag(),

		RealSum:                  c.number(row, "realSum"),
		Lat:                      c.number(row, "lat"),
		Lng:                      c.number(row, "lng"),
		PersonCapacity:           c.number(row, "person_capacity"),
		CleanlinessRating:        c.number(row, "cleanliness_rating"),
		GuestSatisfactionOverall: c.number(row, "guest_satisfaction_overall"),
		Bedrooms:                 c.number(row, "bedrooms"),
		Dist:                     c.number(row, "dist"),
		MetroDist:                c.number(row, "metro_dist"),
		AttrIndex:                c.number(row, "attr_index"),
		RestIndex:                c.number(row, "rest_index"),
	}
	return rec
}

// CoerceAll converts rows in order.
func (c *Cleaner) CoerceAll(rows []models.RawRow, scope models.Scope) []models.ListingRecord {
	out := make([]models.ListingRecord, 0, len(rows))
	invalid := 0
	for _, row := range rows {
		rec := c.Coerce(row, scope)
		if !rec.RealSum.Valid {
			invalid++
		}
		out = append(out, rec)
	}
	if invalid > 0 {
		c.logger.Warn("[cleaner] %s: %d of %d rows have no usable realSum", scope, invalid, len(rows))
	}
	return out
}

// Normalise fills missing required columns with nil and stamps the scope
// columns, matching the layout the database tables expect.
func (c *Cleaner) Normalise(row models.RawRow, scope models.Scope) models.RawRow {
	out := make(models.RawRow, len(RequiredColumns))
	for _, col := range RequiredColumns {
		v, ok := row[col]
		if !ok {
			out[col] = nil
			continue
		}
		out[col] = v
	}
	out["city"] = scope.City
	out["period"] = string(scope.Period)
	return out
}

func (c *Cleaner) number(row models.RawRow, col string) models.Number {
	raw, present := row[col]
	n := models.ParseNumber(raw)
	if present && raw != nil && !n.Valid {
		if s, ok := raw.(string); !ok || strings.TrimSpace(s) != "" {
			c.logger.Debug("[cleaner] Unparseable %s value %v", col, raw)
		}
	}
	return n
}

func stringField(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	}
	return ""
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
