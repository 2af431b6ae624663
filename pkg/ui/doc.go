// Package ui prints the human-facing output of nhdl: the logo, styled
// status lines, the per-gallery progress tracker and the run summary.
// Log records go through pkg/logger instead.
package ui
