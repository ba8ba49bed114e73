package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

const (
	attrDocumentID = "document_id"
	attrOwner      = "owner"
	attrExpiresAt  = "expires_at"
)

// Ensure Locker implements the interface.
var _ driven.DocumentLocker = (*Locker)(nil)

// Client is the interface for DynamoDB operations.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Locker takes per-document locks with conditional writes. An item whose
// expires_at has passed is treated as free, so a crashed holder blocks a
// document for at most one TTL.
type Locker struct {
	client Client
	table  string
	ttl    time.Duration
	now    func() time.Time
}

// NewLocker creates a locker over table.
func NewLocker(client Client, table string, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Locker{client: client, table: table, ttl: ttl, now: time.Now}
}

// New builds a locker using the default AWS credential chain.
func New(ctx context.Context, settings domain.LockSettings) (*Locker, error) {
	if settings.Table == "" {
		return nil, fmt.Errorf("%w: dynamodb lock needs a table", domain.ErrInvalidInput)
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewLocker(dynamodb.NewFromConfig(cfg), settings.Table, settings.TTL), nil
}

// TryLock acquires the lock without waiting.
func (l *Locker) TryLock(ctx context.Context, documentID string) (driven.Lease, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := l.now()
	owner := uuid.NewString()

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item: map[string]types.AttributeValue{
			attrDocumentID: &types.AttributeValueMemberS{Value: documentID},
			attrOwner:      &types.AttributeValueMemberS{Value: owner},
			attrExpiresAt:  &types.AttributeValueMemberN{Value: unix(now.Add(l.ttl))},
		},
		ConditionExpression: aws.String("attribute_not_exists(#doc) OR #exp < :now"),
		ExpressionAttributeNames: map[string]string{
			"#doc": attrDocumentID,
			"#exp": attrExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: unix(now)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, domain.ErrDeletionInProgress
		}
		return nil, fmt.Errorf("acquiring lock for %s: %w", documentID, err)
	}
	return &lease{locker: l, documentID: documentID, owner: owner}, nil
}

type lease struct {
	locker     *Locker
	documentID string
	owner      string

	once sync.Once
	err  error
}

// Release deletes the item if this lease still owns it. A lock that
// expired and was taken over is left alone.
func (l *lease) Release(ctx context.Context) error {
	l.once.Do(func() {
		_, err := l.locker.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(l.locker.table),
			Key: map[string]types.AttributeValue{
				attrDocumentID: &types.AttributeValueMemberS{Value: l.documentID},
			},
			ConditionExpression:      aws.String("#owner = :owner"),
			ExpressionAttributeNames: map[string]string{"#owner": attrOwner},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":owner": &types.AttributeValueMemberS{Value: l.owner},
			},
		})
		var ccf *types.ConditionalCheckFailedException
		if err != nil && !errors.As(err, &ccf) {
			l.err = fmt.Errorf("releasing lock for %s: %w", l.documentID, err)
		}
	})
	return l.err
}

func unix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
