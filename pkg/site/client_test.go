package site_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhdl/pkg/config"
	nherrors "nhdl/pkg/errors"
	"nhdl/pkg/logger"
	"nhdl/pkg/site"
	"nhdl/pkg/site/sitetest"
)

func TestNewClientProxy(t *testing.T) {
	for _, p := range []string{"", "http://127.0.0.1:3128", "socks5://127.0.0.1:1080"} {
		cfg := config.DefaultConfig()
		cfg.HTTP.Proxy = p
		client, err := site.NewClient(cfg, logger.NewNopLogger())
		require.NoError(t, err, p)
		assert.NotNil(t, client)
	}

	cfg := config.DefaultConfig()
	cfg.HTTP.Proxy = "://bad"
	_, err := site.NewClient(cfg, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestClientHeaders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Site.Cookie = "cf_clearance=xyz"
	cfg.Site.UserAgent = "TestAgent/1.0"
	client, err := site.NewClient(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	var got http.Header
	client.SetTransport(sitetest.NewTransport(func(req *http.Request) (*http.Response, error) {
		got = req.Header.Clone()
		return sitetest.Response(http.StatusOK, "ok"), nil
	}))

	resp, err := client.Fetch(context.Background(), "https://nhentai.net/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "TestAgent/1.0", got.Get("User-Agent"))
	assert.Equal(t, "cf_clearance=xyz", got.Get("Cookie"))
	assert.Equal(t, "https://nhentai.net/", got.Get("Referer"))
}

func TestFetchStatusError(t *testing.T) {
	client := sitetest.NewClient(sitetest.NewTransport(sitetest.Status(http.StatusServiceUnavailable)), nil)

	_, err := client.Fetch(context.Background(), "https://nhentai.net/g/1")
	require.Error(t, err)

	var siteErr *nherrors.Error
	require.ErrorAs(t, err, &siteErr)
	assert.Equal(t, nherrors.ErrorTypeStatus, siteErr.Type)
	assert.Equal(t, http.StatusServiceUnavailable, siteErr.Code)
	assert.Equal(t, "https://nhentai.net/g/1", siteErr.URL)
}

func TestFetchNetworkError(t *testing.T) {
	boom := errors.New("connection reset")
	client := sitetest.NewClient(sitetest.NewTransport(func(*http.Request) (*http.Response, error) {
		return nil, boom
	}), nil)

	_, err := client.Fetch(context.Background(), "https://nhentai.net/g/1")
	require.Error(t, err)
	assert.Equal(t, nherrors.ErrorTypeNetwork, nherrors.TypeOf(err))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "https://nhentai.net/g/1")
}

func TestSearchRedirectIsNotFollowed(t *testing.T) {
	rt := sitetest.Routes(map[string]sitetest.HandlerFunc{
		"https://nhentai.net/search/?q=%23555&page=1": func(*http.Request) (*http.Response, error) {
			return sitetest.Redirect(http.StatusFound, "/g/555/"), nil
		},
	})
	client := sitetest.NewClient(rt, nil)

	resp, err := client.Fetch(context.Background(), client.Endpoints().SearchURL("#555", 1, ""))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/g/555/", resp.Header.Get("Location"))
	assert.Len(t, rt.Requests(), 1)
}

func TestOtherRedirectsAreFollowed(t *testing.T) {
	rt := sitetest.Routes(map[string]sitetest.HandlerFunc{
		"https://nhentai.net/g/7": func(*http.Request) (*http.Response, error) {
			return sitetest.Redirect(http.StatusMovedPermanently, "/g/7/"), nil
		},
		"https://nhentai.net/g/7/": sitetest.HTML("<html>gallery</html>"),
	})
	client := sitetest.NewClient(rt, nil)

	resp, err := client.Fetch(context.Background(), "https://nhentai.net/g/7")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"https://nhentai.net/g/7", "https://nhentai.net/g/7/"}, rt.Requests())
}

func TestRedirectLoopFails(t *testing.T) {
	rt := sitetest.NewTransport(func(*http.Request) (*http.Response, error) {
		return sitetest.Redirect(http.StatusFound, "/loop"), nil
	})
	client := sitetest.NewClient(rt, nil)

	_, err := client.Fetch(context.Background(), "https://nhentai.net/loop")
	require.Error(t, err)
	assert.ErrorIs(t, err, site.ErrTooManyRedirects)
	assert.Len(t, rt.Requests(), 11)
}

func TestGetHTML(t *testing.T) {
	rt := sitetest.Routes(map[string]sitetest.HandlerFunc{
		"https://nhentai.net/": sitetest.HTML(`<html><body><a class="cover" href="/g/1/">x</a></body></html>`),
	})
	client := sitetest.NewClient(rt, nil)

	doc, err := client.GetHTML(context.Background(), "https://nhentai.net/")
	require.NoError(t, err)

	href, ok := doc.Find("a.cover").Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "/g/1/", href)
}

func TestDownload(t *testing.T) {
	rt := sitetest.Routes(map[string]sitetest.HandlerFunc{
		"https://i1.nhentai.net/galleries/42/1.jpg": sitetest.HTML("JPEGDATA"),
	})
	client := sitetest.NewClient(rt, nil)

	var buf bytes.Buffer
	n, err := client.Download(context.Background(), "https://i1.nhentai.net/galleries/42/1.jpg", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "JPEGDATA", buf.String())

	_, err = client.Download(context.Background(), "https://i1.nhentai.net/galleries/42/2.jpg", io.Discard)
	assert.True(t, nherrors.IsNotFound(err))
}

func TestRequestsAreLogged(t *testing.T) {
	tl := logger.NewTestLogger()
	client := sitetest.NewClient(sitetest.NewTransport(sitetest.HTML("ok")), tl)

	resp, err := client.Fetch(context.Background(), "https://nhentai.net/")
	require.NoError(t, err)
	resp.Body.Close()

	traces := tl.GetMessagesByLevel("TRACE")
	require.NotEmpty(t, traces)
	assert.Equal(t, "https://nhentai.net/", traces[0].Fields["url"])
	assert.Equal(t, "site", traces[0].Fields["component"])
}
