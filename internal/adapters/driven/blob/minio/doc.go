// Package minio stores remote blobs in MinIO or any S3-compatible server
// through minio-go.
//
// Integration tests run against a live server when
// SERCHA_TEST_MINIO_ENDPOINT is set.
package minio
