package dynamodb

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"wayfinder/application/ports"
	pkgerrors "wayfinder/pkg/errors"
)

// DistributedLock implements ports.Locker with DynamoDB conditional writes,
// so editors on different machines exclude each other per map floor.
type DistributedLock struct {
	client    API
	tableName string
	owner     string
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

var _ ports.Locker = (*DistributedLock)(nil)

type lockRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	LockID     string `dynamodbav:"LockID"`
	Owner      string `dynamodbav:"Owner"`
	AcquiredAt string `dynamodbav:"AcquiredAt"`
	ExpiresAt  string `dynamodbav:"ExpiresAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

const (
	lockSK = "LOCK"

	// fixed width so stored timestamps compare as strings
	lockTimeFormat = "2006-01-02T15:04:05.000000000Z"
)

// NewDistributedLock creates a lock whose records expire after ttl.
// An expired record can be taken over by the next caller.
func NewDistributedLock(client API, tableName, owner string, ttl time.Duration, logger *zap.Logger) *DistributedLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	if owner == "" {
		owner = uuid.New().String()
	}
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		owner:     owner,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// TryAcquire writes the lock record unless a live one exists
func (dl *DistributedLock) TryAcquire(ctx context.Context, key string) (func(), error) {
	now := dl.now().UTC()
	expiresAt := now.Add(dl.ttl)
	record := lockRecord{
		PK:         "LOCK#" + key,
		SK:         lockSK,
		LockID:     uuid.New().String(),
		Owner:      dl.owner,
		AcquiredAt: now.Format(lockTimeFormat),
		ExpiresAt:  expiresAt.Format(lockTimeFormat),
		TTL:        expiresAt.Unix(),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode lock record").WithCause(err)
	}
	expr, err := expression.NewBuilder().WithCondition(
		expression.Name("PK").AttributeNotExists().
			Or(expression.Name("ExpiresAt").LessThan(expression.Value(now.Format(lockTimeFormat)))),
	).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build lock condition").WithCause(err)
	}

	_, err = dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(dl.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Debug("Lock already held", zap.String("key", key), zap.String("owner", dl.owner))
			return nil, pkgerrors.NewConflictError("operation in progress").
				WithDetails(map[string]interface{}{"key": key})
		}
		return nil, pkgerrors.NewDatabaseError("acquire lock", err)
	}

	dl.logger.Debug("Lock acquired",
		zap.String("key", key),
		zap.String("lockID", record.LockID),
		zap.Duration("ttl", dl.ttl),
	)
	var once sync.Once
	return func() { once.Do(func() { dl.release(key, record.LockID) }) }, nil
}

// release deletes the record if it is still ours. It runs after the
// guarded call returns, so it uses its own short deadline.
func (dl *DistributedLock) release(key, lockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	expr, err := expression.NewBuilder().WithCondition(
		expression.Name("LockID").Equal(expression.Value(lockID)).
			And(expression.Name("Owner").Equal(expression.Value(dl.owner))),
	).Build()
	if err != nil {
		dl.logger.Error("Failed to build release condition", zap.Error(err))
		return
	}

	_, err = dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(dl.tableName),
		Key:                       itemKey("LOCK#"+key, lockSK),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Warn("Lock expired or taken over before release",
				zap.String("key", key),
				zap.String("lockID", lockID),
			)
			return
		}
		dl.logger.Error("Failed to release lock", zap.String("key", key), zap.Error(err))
		return
	}
	dl.logger.Debug("Lock released", zap.String("key", key), zap.String("lockID", lockID))
}
