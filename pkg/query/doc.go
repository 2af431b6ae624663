// Package query runs site searches. A search either redirects straight to a
// single gallery or returns a paginated list of galleries; in the second case
// the first page fixes the page count for the rest of the session.
package query
