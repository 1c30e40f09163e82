package normalize

import (
	"strconv"
	"strings"
	"time"

	"IPOAlertBot/internal/domain"
)

// DateLayout is the upstream calendar format, e.g. "01-Jan-2025".
const DateLayout = "02-Jan-2006"

// RawEntry mirrors one element of the upstream current-issues payload.
// Every field is free text; validation happens during normalization.
type RawEntry struct {
	CompanyName    string `json:"companyName"`
	IssueSize      string `json:"issueSize"`
	IssueStartDate string `json:"issueStartDate"`
	IssueEndDate   string `json:"issueEndDate"`
	Status         string `json:"status"`
}

// Normalize converts raw entries into offerings, dropping any whose issue
// size falls below minSizeCr. A missing company name passes through as an
// empty key; malformed sizes and dates degrade to their zero values rather
// than failing the pass.
func Normalize(entries []RawEntry, minSizeCr float64) []domain.Offering {
	offerings := make([]domain.Offering, 0, len(entries))
	for _, entry := range entries {
		size := ParseSizeCr(entry.IssueSize)
		if size < minSizeCr {
			continue
		}

		offerings = append(offerings, domain.Offering{
			Name:        entry.CompanyName,
			IssueSizeCr: size,
			StartDate:   parseDate(entry.IssueStartDate),
			EndDate:     parseDate(entry.IssueEndDate),
			StartText:   entry.IssueStartDate,
			EndText:     entry.IssueEndDate,
			Status:      entry.Status,
		})
	}
	return offerings
}

// ParseSizeCr extracts a crore amount from upstream free text such as
// "1,234.5 Cr". Unparseable input yields 0, which the threshold then drops.
func ParseSizeCr(raw string) float64 {
	cleaned := strings.ToLower(raw)
	cleaned = strings.ReplaceAll(cleaned, "cr", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	size, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || size < 0 {
		return 0
	}
	return size
}

func parseDate(raw string) time.Time {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// SameDay reports whether two instants fall on the same calendar date, each
// read in its own location. Parsed offering dates are bare UTC midnights and
// the pass's "today" arrives already converted to the configured timezone;
// coercing either to UTC would shift the local date near midnight.
func SameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
