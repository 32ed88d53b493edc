// Package archive copies finalized videos into S3 so the library does not
// depend on the stitch service keeping its artifacts around.
package archive
