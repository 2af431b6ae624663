// Package downloader fetches the page images of a resolved gallery with a
// small fixed pool of workers, resuming partially downloaded galleries.
package downloader
