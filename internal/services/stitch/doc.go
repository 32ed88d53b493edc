// Package stitch wraps the clip concatenation HTTP API.
package stitch
