// Package local provides a filesystem implementation of the blob store port.
//
// Blobs live under a root directory at their key path. With trash enabled,
// Delete moves a blob to <root>/.trash/<key>/<unix-nanos> instead of removing
// it, which lets a failed deletion restore the exact bytes. Trashed blobs are
// removed by Reap once older than the configured grace period.
package local
