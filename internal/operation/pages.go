package operation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	singlePagePattern = regexp.MustCompile(`^\d+$`)
	pageRangePattern  = regexp.MustCompile(`^\d+-\d+$`)
)

// PageRange is an inclusive, 1-based page interval
type PageRange struct {
	Start int
	End   int
}

// Contains reports whether page lies within the range
func (r PageRange) Contains(page int) bool {
	return page >= r.Start && page <= r.End
}

// String formats the range the way the backend expects it
func (r PageRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// CheckSplitPoint validates one split point for the given mode. Pages
// mode accepts "N"; ranges mode accepts "N-M" with 1 <= N <= M.
func CheckSplitPoint(mode, point string) error {
	switch mode {
	case SplitModePages:
		if !singlePagePattern.MatchString(point) {
			return fmt.Errorf("invalid split point %q: expected a page number", point)
		}
		if n, _ := strconv.Atoi(point); n < 1 {
			return fmt.Errorf("invalid split point %q: pages start at 1", point)
		}
		return nil
	case SplitModeRanges:
		if !pageRangePattern.MatchString(point) {
			return fmt.Errorf("invalid split point %q: expected a range like 1-3", point)
		}
		if _, err := parseRange(point); err != nil {
			return fmt.Errorf("invalid split point %q: %w", point, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown split mode: %q", mode)
	}
}

// ParsePageSelector parses a comma separated page selection such as
// "1,3,5" or "1-3,7". Whitespace around items is ignored.
func ParsePageSelector(selector string) ([]PageRange, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, fmt.Errorf("page selection cannot be empty")
	}

	var ranges []PageRange
	for _, item := range strings.Split(selector, ",") {
		item = strings.TrimSpace(item)
		switch {
		case singlePagePattern.MatchString(item):
			n, err := strconv.Atoi(item)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid page %q", item)
			}
			ranges = append(ranges, PageRange{Start: n, End: n})
		case pageRangePattern.MatchString(item):
			r, err := parseRange(item)
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, r)
		default:
			return nil, fmt.Errorf("invalid page selection item %q", item)
		}
	}

	return ranges, nil
}

func parseRange(s string) (PageRange, error) {
	parts := strings.SplitN(s, "-", 2)
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return PageRange{}, fmt.Errorf("invalid range start %q", parts[0])
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return PageRange{}, fmt.Errorf("invalid range end %q", parts[1])
	}
	if start < 1 {
		return PageRange{}, fmt.Errorf("pages start at 1, got %d", start)
	}
	if start > end {
		return PageRange{}, fmt.Errorf("range start %d is after end %d", start, end)
	}
	return PageRange{Start: start, End: end}, nil
}
