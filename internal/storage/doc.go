// Package storage provides the upload.Uploader backends.
//
// The gateway backend POSTs raw payloads to an HTTP upload gateway (an IPFS
// pinning service or Arweave bundler) and returns ipfs:// or ar:// URIs. The
// s3 backend writes content-addressed keys to any S3-compatible object store
// through minio-go. Both read URIs back over HTTP for verification, throttled
// by a shared token bucket.
package storage
