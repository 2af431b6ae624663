package query

import (
	"fmt"
	"strings"
)

// SortOrder is the order of search results.
type SortOrder int

const (
	SortRecent SortOrder = iota
	SortPopular
	SortPopularWeek
	SortPopularToday
)

var sortNames = map[SortOrder]string{
	SortRecent:       "recent",
	SortPopular:      "popular",
	SortPopularWeek:  "popular-week",
	SortPopularToday: "popular-today",
}

// ParseSortOrder parses the names printed by SortOrder.String. Empty means recent.
func ParseSortOrder(s string) (SortOrder, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortRecent, nil
	}
	for order, name := range sortNames {
		if name == s {
			return order, nil
		}
	}
	return SortRecent, fmt.Errorf("unknown sort order %q (want recent, popular, popular-week or popular-today)", s)
}

func (s SortOrder) String() string {
	if name, ok := sortNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SortOrder(%d)", int(s))
}

// Param is the value of the search "sort" parameter; empty for recent.
func (s SortOrder) Param() string {
	if s == SortRecent {
		return ""
	}
	return sortNames[s]
}

// Session is a multi-page search whose page count was discovered on its
// first fetch. It is only created by Navigator.Query and never changes.
type Session struct {
	query      string
	sort       SortOrder
	totalPages uint32
}

func (s *Session) Query() string      { return s.query }
func (s *Session) Sort() SortOrder    { return s.sort }
func (s *Session) TotalPages() uint32 { return s.totalPages }

// OutcomeKind tells which shape a query result has.
type OutcomeKind int

const (
	// SingleGallery means the search redirected straight to one gallery.
	SingleGallery OutcomeKind = iota + 1
	// ListResult means the search returned a page of results.
	ListResult
)

// Outcome is the result of Navigator.Query. GalleryID is set for
// SingleGallery; Session and GalleryIDs for ListResult.
type Outcome struct {
	Kind       OutcomeKind
	GalleryID  uint32
	Session    *Session
	GalleryIDs []uint32
}
