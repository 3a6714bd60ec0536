// Package main hosts the mintwatch CLI entrypoint and command graph.
//
// The Cobra command tree runs the daemon in the foreground and translates the
// remaining invocations into JSON-RPC calls against its unix socket: status,
// minted and failed folder listings, watcher control, and test notifications.
// Configuration scaffolding and preflight checks run locally without a daemon.
//
// Keep this package thin. New behavior belongs in the internal packages first
// and is surfaced here through a command or flag.
package main
