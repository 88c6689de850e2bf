package jobs

import (
	"fmt"
	"sort"
	"strings"
)

// SortBy selects the ordering of the job list.
type SortBy string

const (
	SortNewest  SortBy = "newest"
	SortOldest  SortBy = "oldest"
	SortCompany SortBy = "company"
	SortTitle   SortBy = "title"
)

// ParseSortBy converts a raw value into a SortBy, defaulting to newest.
func ParseSortBy(raw string) (SortBy, error) {
	switch s := SortBy(raw); s {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortCompany, SortTitle:
		return s, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", raw)
	}
}

// Filter narrows the list. A zero Filter matches everything.
type Filter struct {
	Status Status // empty means all statuses
	Query  string // case-insensitive match on title, company and notes
}

// Match reports whether j passes the filter.
func (f Filter) Match(j Job) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(j.JobTitle), q) ||
		strings.Contains(strings.ToLower(j.CompanyName), q) ||
		strings.Contains(strings.ToLower(j.Notes), q)
}

// Apply returns the jobs matching f ordered by order. The input is not
// modified.
func Apply(list []Job, f Filter, order SortBy) []Job {
	out := make([]Job, 0, len(list))
	for _, j := range list {
		if f.Match(j) {
			out = append(out, j)
		}
	}

	var less func(a, b Job) bool
	switch order {
	case SortOldest:
		less = func(a, b Job) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortCompany:
		less = func(a, b Job) bool { return strings.ToLower(a.CompanyName) < strings.ToLower(b.CompanyName) }
	case SortTitle:
		less = func(a, b Job) bool { return strings.ToLower(a.JobTitle) < strings.ToLower(b.JobTitle) }
	default:
		less = func(a, b Job) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, k int) bool { return less(out[i], out[k]) })
	return out
}

// CountByStatus tallies jobs per status. Every known status has an entry.
func CountByStatus(list []Job) map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, j := range list {
		counts[j.Status]++
	}
	return counts
}
