package site

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func requestsFor(paths ...string) []*http.Request {
	via := make([]*http.Request, 0, len(paths))
	for _, p := range paths {
		via = append(via, &http.Request{URL: &url.URL{Scheme: "https", Host: "nhentai.net", Path: p}})
	}
	return via
}

func TestRedirectPolicy(t *testing.T) {
	policy := NewRedirectPolicy(10)
	next := &http.Request{URL: &url.URL{Path: "/g/555/"}}

	tests := []struct {
		name string
		via  []*http.Request
		want error
	}{
		{"stops after search", requestsFor("/search/"), http.ErrUseLastResponse},
		{"stops after bare search", requestsFor("/search"), http.ErrUseLastResponse},
		{"follows elsewhere", requestsFor("/g/555"), nil},
		{"only the previous hop counts", requestsFor("/search/", "/g/1"), nil},
		{"search at end of a chain", requestsFor("/", "/search/"), http.ErrUseLastResponse},
		{"hop limit reached", requestsFor("/a", "/b", "/c", "/d", "/e", "/f", "/g", "/h", "/i", "/j"), nil},
		{"hop limit exceeded", requestsFor("/a", "/b", "/c", "/d", "/e", "/f", "/g", "/h", "/i", "/j", "/k"), ErrTooManyRedirects},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.CheckRedirect(next, tt.via)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
