// Package session holds the ordered list of generated clips that make up one
// authoring session.
//
// Clips only ever join at the end and only the last clip can be removed, so
// every clip's SequenceIndex always equals its position.
package session
