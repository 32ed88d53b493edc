// Package main hosts the clipstudio CLI entrypoint and command graph.
//
// Commands translate terminal invocations into JSON-RPC calls against the
// daemon: session actions, library browsing, status and preflight checks.
// The same binary runs the daemon itself through the hidden `daemon` command,
// which `clipstudio start` launches detached.
package main
