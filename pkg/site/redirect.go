package site

import (
	"errors"
	"net/http"
	"strings"
)

// ErrTooManyRedirects is returned once a request exceeds its redirect budget.
var ErrTooManyRedirects = errors.New("too many redirects")

// RedirectPolicy decides, hop by hop, whether the HTTP client follows a redirect.
//
// A redirect issued by the search page is never followed: the caller gets the
// 3xx response itself so it can tell a single-gallery search apart from a
// results list. Every other redirect is followed up to MaxRedirects hops.
type RedirectPolicy struct {
	MaxRedirects int
}

// NewRedirectPolicy returns a policy with the given hop budget.
func NewRedirectPolicy(maxRedirects int) *RedirectPolicy {
	return &RedirectPolicy{MaxRedirects: maxRedirects}
}

// CheckRedirect has the signature of http.Client.CheckRedirect.
func (p *RedirectPolicy) CheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) == 0 {
		return nil
	}

	prev := via[len(via)-1]
	if strings.Trim(prev.URL.Path, "/") == SearchPath {
		return http.ErrUseLastResponse
	}
	if len(via) > p.MaxRedirects {
		return ErrTooManyRedirects
	}
	return nil
}
