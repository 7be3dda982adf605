package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/platedev/tastebite-api/internal/models"
)

// CSVHeader is the fixed header row of the review export.
const CSVHeader = "review_id,dish_id,dish_name,user_id,username,rating,date,comment"

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// ExportCSV renders one row per review created within [start 00:00:00,
// end 23:59:59] UTC, ordered by creation time ascending. Every field is
// quoted, embedded quotes are doubled and newlines inside comments are
// flattened. The export always recomputes; it never touches the cache.
func (b *Builder) ExportCSV(ctx context.Context, start, end time.Time) ([]byte, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		start, end = end, start
	}

	var reviews []models.Review
	err := b.db.WithContext(ctx).
		Preload("Dish").
		Preload("User").
		Where("created_at >= ? AND created_at < ?", start, end.AddDate(0, 0, 1)).
		Order("created_at asc").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews for export: %w", err)
	}

	var buf strings.Builder
	buf.WriteString(CSVHeader)
	buf.WriteByte('\n')

	for _, r := range reviews {
		fields := []string{
			r.ID.String(),
			r.DishID.String(),
			r.Dish.Name,
			r.UserID.String(),
			r.User.Username,
			fmt.Sprintf("%d", r.Rating),
			r.Date.Format("2006-01-02"),
			newlineReplacer.Replace(r.Comment),
		}
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
			buf.WriteByte('"')
		}
		buf.WriteByte('\n')
	}

	return []byte(buf.String()), nil
}

// CSVFilename is the attachment name served with the export.
func CSVFilename(start, end time.Time) string {
	return fmt.Sprintf("reviews_%s_%s.csv", start.Format("2006-01-02"), end.Format("2006-01-02"))
}
