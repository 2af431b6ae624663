// Package site is the HTTP layer for the gallery site.
//
// It owns the browser-like headers, the optional session cookie, request
// pacing, proxy support (HTTP or SOCKS5) and the redirect policy that lets
// search requests observe a redirect instead of following it.
//
//	client, err := site.NewClient(cfg, log)
//	doc, err := client.GetHTML(ctx, client.Endpoints().GalleryURL(177013))
package site
