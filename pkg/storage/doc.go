// Package storage owns the on-disk layout of downloaded galleries.
//
// Every gallery gets its own directory below the output root, named after
// its numeric id:
//
//	<root>/<id>/gallery.json
//	<root>/<id>/1.jpg
//	<root>/<id>/2.png
//
// Pages are written to a temporary .part file and renamed into place, so a
// file with the final name is always complete. Whether the gallery directory
// existed before a run drives the downloader's resume decision.
package storage
