// Package pipeline is the folder-to-mint controller.
//
// A Controller receives watcher events, debounces them per folder through the
// scheduler, and runs each ready folder through loading, validating,
// uploading and minting. Every folder task moves through an explicit state
// table; completed and failed are terminal and release the task.
//
// Shared state (pending timers, the completion ledger, in-flight tasks and
// run statistics) is guarded so many folders can be in flight at once. Steps
// within one folder are strictly sequential; no ordering holds across
// folders.
//
// A failed folder stays in the inbox untouched. It is only retried when a new
// filesystem event for it arrives.
package pipeline
