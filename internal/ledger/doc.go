// Package ledger records which inbox folders have been minted.
//
// Completion has two layers: an in-memory set of folder names for the life
// of the process, and a ".done" marker file inside the folder holding the
// completion timestamp. Completed folders are then archived into the
// processed root, gaining an "_n" suffix when the name is already taken.
package ledger
