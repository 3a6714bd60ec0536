// Package watcher turns filesystem notifications under the inbox into folder
// events.
//
// Only the inbox root and its first-level directories are watched. Every
// notification is attributed to the first-level folder it happened in; hidden
// names (including completion markers) and permission changes are ignored. On
// start, folders already present in the inbox are reported as if they had just
// appeared.
package watcher
