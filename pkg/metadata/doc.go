// Package metadata reads and writes the gallery.json snapshot kept next to
// the downloaded pages, and inspects a gallery directory for missing pages.
package metadata
