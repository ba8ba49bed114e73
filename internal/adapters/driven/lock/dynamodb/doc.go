// Package dynamodb provides a distributed per-document deletion lock on a
// DynamoDB table, for deployments where several coordinators share stores.
//
// Table schema:
//   - Partition key: document_id (string)
//   - expires_at (number, unix seconds), suitable as the table's TTL attribute
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name sercha-locks \
//	  --attribute-definitions AttributeName=document_id,AttributeType=S \
//	  --key-schema AttributeName=document_id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb
