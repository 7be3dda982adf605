package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/platedev/tastebite-api/internal/stats"
)

// parseReportParams applies the statistics endpoint's defaulting rules.
// Malformed values never fail the request; they fall back to defaults:
// end defaults to today, start to end-(period-1) days with period
// defaulting to 30, min_reviews to 3 clamped up to 1. A reversed range
// is swapped.
func parseReportParams(startStr, endStr, periodStr, minStr string, now time.Time) (start, end time.Time, minReviews int) {
	period := 30
	if p, err := strconv.Atoi(periodStr); err == nil && p > 0 {
		period = p
	}

	end = stats.Day(now)
	if parsed, err := time.Parse("2006-01-02", endStr); err == nil {
		end = stats.Day(parsed)
	}

	start = end.AddDate(0, 0, -(period - 1))
	if parsed, err := time.Parse("2006-01-02", startStr); err == nil {
		start = stats.Day(parsed)
	}

	if start.After(end) {
		start, end = end, start
	}

	minReviews = 3
	if m, err := strconv.Atoi(minStr); err == nil {
		minReviews = m
	}
	if minReviews < 1 {
		minReviews = 1
	}

	return start, end, minReviews
}

// GetStats serves the admin statistics report, or the raw review rows as
// a CSV download when export=csv. The CSV path always recomputes; the
// structured report may be served from the cache.
func GetStats(builder *stats.Builder) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now().UTC()
		start, end, minReviews := parseReportParams(
			c.Query("start"), c.Query("end"), c.Query("period"), c.Query("min_reviews"), now)

		if c.Query("export") == "csv" {
			data, err := builder.ExportCSV(c.Request.Context(), start, end)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "Failed to export reviews",
					},
				})
				return
			}

			c.Header("Content-Disposition", `attachment; filename="`+stats.CSVFilename(start, end)+`"`)
			c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
			return
		}

		report, err := builder.Report(c.Request.Context(), start, end, minReviews, now)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to build report",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    report,
		})
	}
}
