package domain

import "time"

// SearchEntry is a document's entry in the full-text search index.
type SearchEntry struct {
	// ID is the search index identifier, matching DocumentRecord.SearchIndexID.
	ID string

	// DocumentID links back to the relational record.
	DocumentID string

	// TenantID scopes the entry.
	TenantID string

	// Source is the denormalised JSON document, kept byte-for-byte.
	Source []byte
}

// VectorPayload is the metadata stored alongside an embedding.
type VectorPayload struct {
	DocumentID string `json:"document_id"`
	TenantID   string `json:"tenant_id"`
	Preview    string `json:"preview"`
}

// VectorEntry is a document's entry in the vector index.
type VectorEntry struct {
	// ID is the vector index identifier, matching DocumentRecord.VectorIndexID.
	ID string

	// Vector is the embedding.
	Vector []float32

	// Payload is the metadata stored with the embedding.
	Payload VectorPayload
}

// BlobInfo describes a stored blob without its content.
type BlobInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}
