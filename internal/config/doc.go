// Package config loads, normalizes, and validates clipstudio configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for service
// credentials such as CLIPSTUDIO_GENERATION_TOKEN. The Config type centralizes
// every knob the daemon and CLI need so the generation and stitch endpoints,
// the video library, and the handoff target are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
