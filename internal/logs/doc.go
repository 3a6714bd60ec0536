// Package logs reads the daemon log file for `mintwatch logs`.
//
// Last returns the trailing lines of a file with bounded memory, and Follow
// polls from an offset, handing each appended line to a callback until the
// context ends. A file that is truncated or replaced (a new daemon run moves
// the mintwatch.log pointer) is read again from the start.
package logs
