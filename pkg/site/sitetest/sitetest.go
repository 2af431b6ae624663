// Package sitetest provides an in-memory http.RoundTripper for exercising
// code built on site.Client without touching the network.
package sitetest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"

	"nhdl/pkg/config"
	"nhdl/pkg/logger"
	"nhdl/pkg/site"
)

// HandlerFunc answers one request.
type HandlerFunc func(req *http.Request) (*http.Response, error)

// Transport records every request and answers it with its handler.
type Transport struct {
	mu       sync.Mutex
	handler  HandlerFunc
	requests []string
}

// NewTransport returns a Transport backed by handler.
func NewTransport(handler HandlerFunc) *Transport {
	return &Transport{handler: handler}
}

// Routes returns a Transport answering by exact URL; unknown URLs get a 404.
func Routes(routes map[string]HandlerFunc) *Transport {
	return NewTransport(func(req *http.Request) (*http.Response, error) {
		if h, ok := routes[req.URL.String()]; ok {
			return h(req)
		}
		return Response(http.StatusNotFound, "not found"), nil
	})
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req.URL.String())
	t.mu.Unlock()

	resp, err := t.handler(req)
	if err != nil {
		return nil, err
	}
	resp.Request = req
	return resp, nil
}

// Requests returns the URLs requested so far, in arrival order.
func (t *Transport) Requests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.requests))
	copy(out, t.requests)
	return out
}

// Response builds a response with the given status and body.
func Response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

// Redirect builds a redirect response pointing at location.
func Redirect(status int, location string) *http.Response {
	resp := Response(status, "")
	resp.Header.Set("Location", location)
	return resp
}

// HTML answers every request with a 200 and body.
func HTML(body string) HandlerFunc {
	return func(*http.Request) (*http.Response, error) {
		return Response(http.StatusOK, body), nil
	}
}

// Status answers every request with an empty body and status.
func Status(status int) HandlerFunc {
	return func(*http.Request) (*http.Response, error) {
		return Response(status, ""), nil
	}
}

// NewClient returns a site.Client for the default site that sends every
// request through rt.
func NewClient(rt http.RoundTripper, log logger.Logger) *site.Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	client, err := site.NewClient(config.DefaultConfig(), log)
	if err != nil {
		panic(err)
	}
	client.SetTransport(rt)
	return client
}
