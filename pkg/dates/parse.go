package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/width"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Confidence weights per precision.
const (
	weightDay   = 1.0
	weightMonth = 0.7
	weightYear  = 0.4
)

const (
	minYear = 1000
	maxYear = 9999
)

// pattern is one supported date shape. Patterns that capture a full date
// carry day precision even when the raw string also holds a time of day.
type pattern struct {
	name      string
	re        *regexp.Regexp
	precision types.Precision
	// parse overrides the capture-group extraction when set.
	parse func(raw string) (y, m, d int, err error)
}

// patterns are matched in order; the first match decides precision.
var patterns = []pattern{
	{
		name:      "iso-date",
		re:        regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`),
		precision: types.PrecisionDay,
	},
	{
		name:      "iso-datetime",
		re:        regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}`),
		precision: types.PrecisionDay,
		parse:     parseISODateTime,
	},
	{
		name:      "space-timestamp",
		re:        regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2}) +\d{1,2}:\d{2}(:\d{2}(\.\d+)?)?$`),
		precision: types.PrecisionDay,
	},
	{
		name:      "colon-timestamp",
		re:        regexp.MustCompile(`^(\d{4}):(\d{2}):(\d{2})[ T]\d{2}:\d{2}:\d{2}$`),
		precision: types.PrecisionDay,
	},
	{
		name:      "localized-ymd",
		re:        regexp.MustCompile(`^(\d{4}) *[年/.] *(\d{1,2}) *[月/.] *(\d{1,2}) *[日号]?$`),
		precision: types.PrecisionDay,
	},
	{
		name:      "localized-ym",
		re:        regexp.MustCompile(`^(\d{4}) *[年/.-] *(\d{1,2}) *月?$`),
		precision: types.PrecisionMonth,
	},
	{
		name:      "localized-year",
		re:        regexp.MustCompile(`^(\d{4}) *年?$`),
		precision: types.PrecisionYear,
	},
}

// Parse converts one raw string into a resolved date with full confidence.
// The returned error wraps types.ErrParseFailure.
func Parse(raw string) (types.ResolvedDate, error) {
	s := normalize(raw)
	if s == "" {
		return types.ResolvedDate{}, fmt.Errorf("%w: empty value", types.ErrParseFailure)
	}
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		var y, mo, d int
		var err error
		if p.parse != nil {
			y, mo, d, err = p.parse(s)
		} else {
			y, mo, d, err = fromGroups(m[1:], p.precision)
		}
		if err != nil {
			return types.ResolvedDate{}, fmt.Errorf("%w: %s %q: %v", types.ErrParseFailure, p.name, raw, err)
		}
		if err := checkCalendar(y, mo, d, p.precision); err != nil {
			return types.ResolvedDate{}, fmt.Errorf("%w: %s %q: %v", types.ErrParseFailure, p.name, raw, err)
		}
		rd := types.ResolvedDate{Year: y, Precision: p.precision, Confidence: precisionWeight(p.precision)}
		switch p.precision {
		case types.PrecisionDay:
			rd.Month, rd.Day = mo, d
		case types.PrecisionMonth:
			rd.Month = mo
		}
		return rd, nil
	}
	return types.ResolvedDate{}, fmt.Errorf("%w: no pattern matches %q", types.ErrParseFailure, raw)
}

// normalize folds full-width digits and punctuation to ASCII and trims space.
func normalize(raw string) string {
	s := width.Fold.String(raw)
	return strings.TrimSpace(s)
}

func fromGroups(groups []string, precision types.Precision) (y, m, d int, err error) {
	nums := make([]int, 0, 3)
	for _, g := range groups {
		if g == "" || !isDigits(g) {
			continue
		}
		n, convErr := strconv.Atoi(g)
		if convErr != nil {
			return 0, 0, 0, convErr
		}
		nums = append(nums, n)
		if len(nums) == 3 {
			break
		}
	}
	switch precision {
	case types.PrecisionDay:
		if len(nums) < 3 {
			return 0, 0, 0, fmt.Errorf("incomplete date")
		}
		return nums[0], nums[1], nums[2], nil
	case types.PrecisionMonth:
		if len(nums) < 2 {
			return 0, 0, 0, fmt.Errorf("incomplete month")
		}
		return nums[0], nums[1], 0, nil
	default:
		if len(nums) < 1 {
			return 0, 0, 0, fmt.Errorf("missing year")
		}
		return nums[0], 0, 0, nil
	}
}

// parseISODateTime truncates an RFC 3339 style timestamp to its date in the
// timestamp's own offset.
func parseISODateTime(s string) (y, m, d int, err error) {
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return 0, 0, 0, err
	}
	yy, mm, dd := t.Date()
	return yy, int(mm), dd, nil
}

func checkCalendar(y, m, d int, precision types.Precision) error {
	if y < minYear || y > maxYear {
		return fmt.Errorf("year %d out of range", y)
	}
	if precision == types.PrecisionYear {
		return nil
	}
	if m < 1 || m > 12 {
		return fmt.Errorf("month %d out of range", m)
	}
	if precision == types.PrecisionMonth {
		return nil
	}
	if d < 1 || time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Day() != d {
		return fmt.Errorf("day %d invalid for %04d-%02d", d, y, m)
	}
	return nil
}

func precisionWeight(p types.Precision) float64 {
	switch p {
	case types.PrecisionDay:
		return weightDay
	case types.PrecisionMonth:
		return weightMonth
	case types.PrecisionYear:
		return weightYear
	default:
		return 0
	}
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
