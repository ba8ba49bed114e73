package driven

import "context"

// Requeuer re-submits a document to the ingestion pipeline.
// Delivery is fire-and-forget; ingestion picks the document up from
// its pending status.
type Requeuer interface {
	Requeue(ctx context.Context, documentID string) error
}
