// Package listview computes the displayable subset of an in-memory
// visitor snapshot. Apply is a pure function over the snapshot plus the
// current search/filter/sort state and is safe to re-run on every
// keystroke, filter toggle and incoming snapshot.
package listview

import (
	"sort"
	"strings"
	"time"

	"github.com/xelth-com/campusgate/internal/models"
)

// Sort keys accepted by Query.SortBy
const (
	SortByCheckIn    = "checkInTime"
	SortByName       = "name"
	SortByStatus     = "status"
	SortByDepartment = "department"
)

// Sort orders accepted by Query.SortOrder
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Query is the UI filter state applied to a snapshot
type Query struct {
	Search     string
	Status     []string // empty = no restriction
	Department []string // empty = no restriction
	SortBy     string   // empty = keep the store's natural order
	SortOrder  string   // OrderAsc unless OrderDesc
}

// Apply filters and sorts a raw snapshot. The input slice is never
// mutated; the stages run search, then status, then department, with
// the sort always last. A stable sort keeps equal keys in input order.
func Apply(records []models.Visitor, q Query) []models.Visitor {
	out := make([]models.Visitor, 0, len(records))
	for _, v := range records {
		if !matchesSearch(&v, q.Search) {
			continue
		}
		if len(q.Status) > 0 && !containsFold(q.Status, string(v.Status), false) {
			continue
		}
		if len(q.Department) > 0 && !containsFold(q.Department, department(&v), true) {
			continue
		}
		out = append(out, v)
	}

	if q.SortBy != "" {
		sortRecords(out, q.SortBy)
		if q.SortOrder == OrderDesc {
			reverse(out)
		}
	}
	return out
}

// matchesSearch reports whether any searchable field contains the text.
// Contact numbers match on the raw digits, everything else folds case.
func matchesSearch(v *models.Visitor, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(v.Name), needle) {
		return true
	}
	if strings.Contains(v.ContactNumber, search) {
		return true
	}
	if strings.Contains(strings.ToLower(whomToMeet(v)), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(department(v)), needle)
}

func sortRecords(records []models.Visitor, key string) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := &records[i], &records[j]
		switch key {
		case SortByCheckIn:
			return parseTime(a.CheckInTime).Before(parseTime(b.CheckInTime))
		case SortByName:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case SortByStatus:
			return string(a.Status) < string(b.Status)
		case SortByDepartment:
			return department(a) < department(b)
		default:
			return false
		}
	})
}

// parseTime treats unparsable or missing timestamps as the Unix epoch,
// so sorting never fails on dirty data.
func parseTime(s *string) time.Time {
	if s == nil {
		return time.Unix(0, 0)
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return time.Unix(0, 0)
	}
	return t
}

func department(v *models.Visitor) string {
	d, err := v.Details()
	if err != nil || d == nil {
		return ""
	}
	return d.Department
}

func whomToMeet(v *models.Visitor) string {
	d, err := v.Details()
	if err != nil || d == nil {
		return ""
	}
	return d.WhomToMeet
}

func containsFold(list []string, value string, fold bool) bool {
	for _, c := range list {
		if c == value {
			return true
		}
		if fold && strings.EqualFold(c, value) {
			return true
		}
	}
	return false
}

func reverse(records []models.Visitor) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}
