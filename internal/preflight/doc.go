// Package preflight provides readiness checks for the filesystem paths and
// network collaborators mintwatch depends on.
//
// The daemon runs RunAll at startup and logs failures without refusing to
// start; the CLI "mintwatch preflight" command prints every result and exits
// non-zero when any check fails.
//
// Notifications are only checked when an ntfy topic is configured.
package preflight
