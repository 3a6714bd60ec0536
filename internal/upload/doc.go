// Package upload moves a folder's payloads into content-addressed storage.
//
// Media always goes first; the metadata document is rendered with image set
// to the media URI and uploaded second. Each upload runs under the retry
// policy (insufficient funds is never retried) and, when enabled, is read back
// until storage serves the same bytes or the verification budget runs out.
// Storage backends live in internal/storage and satisfy Uploader.
package upload
