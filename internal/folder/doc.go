// Package folder turns an inbox folder into the media payload and metadata
// document the pipeline uploads.
//
// The loader classifies entries by extension (one media file from the
// allow-list, one .json document, everything else ignored), and Validate
// applies the single semantic rule metadata must satisfy before any network
// call: a non-empty string name.
package folder
