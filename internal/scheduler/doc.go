// Package scheduler debounces folder activity into "folder ready" signals.
//
// Each observation restarts the folder's quiet-period timer; the ready
// callback fires once the folder has been quiet for the full window. Timers
// are per folder, so activity in one folder never delays another.
package scheduler
