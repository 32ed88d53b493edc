// Package ipc exposes the daemon over JSON-RPC on a Unix domain socket.
//
// The Studio service forwards session actions, library reads, status, and
// diagnostics to the daemon. Action rejections travel inside the response with
// their error kind so the CLI can restore errors.Is classification through
// RemoteError.
package ipc
