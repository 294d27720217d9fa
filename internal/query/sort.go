package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/amrverse/amrrulebrowser/internal/rules"
)

// numericToken accepts an optional sign, digits and at most one decimal point.
// Exponents and thousands separators are text.
var numericToken = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// sorter orders rows by one column. It is not safe for concurrent use; the
// engine serializes access.
type sorter struct {
	coll *collate.Collator
}

func newSorter() *sorter {
	return &sorter{coll: collate.New(language.English)}
}

// compare returns a negative, zero or positive result. Two numeric tokens
// compare as numbers; anything else compares as lower-cased text in locale order.
func (s *sorter) compare(a, b string) int {
	if numericToken.MatchString(a) && numericToken.MatchString(b) {
		fa, errA := strconv.ParseFloat(a, 64)
		fb, errB := strconv.ParseFloat(b, 64)
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return s.coll.CompareString(strings.ToLower(a), strings.ToLower(b))
}

// sort orders rows in place, keeping equal keys in their current order.
func (s *sorter) sort(rows []rules.Row, column string, descending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := s.compare(rows[i].Value(column), rows[j].Value(column))
		if descending {
			return c > 0
		}
		return c < 0
	})
}
