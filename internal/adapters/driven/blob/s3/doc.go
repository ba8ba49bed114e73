// Package s3 stores remote blobs in Amazon S3 using aws-sdk-go-v2.
//
// Deletes are permanent. Rollback re-uploads the bytes captured during
// the prepare phase rather than relying on bucket versioning.
package s3
