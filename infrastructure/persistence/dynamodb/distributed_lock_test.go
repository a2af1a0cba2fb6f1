package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	pkgerrors "wayfinder/pkg/errors"
)

func TestTryAcquireWritesConditionalRecord(t *testing.T) {
	api := &mockAPI{}
	lock := NewDistributedLock(api, "wayfinder", "editor-1", 30*time.Second, zaptest.NewLogger(t))
	lock.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	var lockID string
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		var rec lockRecord
		if err := attributevalue.UnmarshalMap(in.Item, &rec); err != nil {
			return false
		}
		lockID = rec.LockID
		return in.ConditionExpression != nil &&
			rec.PK == "LOCK#graph#m1#2" &&
			rec.Owner == "editor-1" &&
			rec.ExpiresAt == "2024-05-01T12:00:30.000000000Z"
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()

	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		for _, v := range in.ExpressionAttributeValues {
			if s, ok := v.(*types.AttributeValueMemberS); ok && s.Value == lockID {
				return true
			}
		}
		return false
	})).Return(&dynamodb.DeleteItemOutput{}, nil).Once()

	release, err := lock.TryAcquire(context.Background(), "graph#m1#2")
	require.NoError(t, err)
	release()
	release()
	api.AssertExpectations(t)
}

func TestTryAcquireBusyIsConflict(t *testing.T) {
	api := &mockAPI{}
	lock := NewDistributedLock(api, "wayfinder", "", time.Minute, nil)

	api.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

	_, err := lock.TryAcquire(context.Background(), "graph#m1#1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Contains(t, err.Error(), "operation in progress")
}

func TestTryAcquireFailure(t *testing.T) {
	api := &mockAPI{}
	lock := NewDistributedLock(api, "wayfinder", "", time.Minute, nil)

	api.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("network down"))

	_, err := lock.TryAcquire(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, pkgerrors.IsConflict(err))
}

func TestReleaseOfExpiredLockIsQuiet(t *testing.T) {
	api := &mockAPI{}
	lock := NewDistributedLock(api, "wayfinder", "", time.Minute, zaptest.NewLogger(t))

	api.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)
	api.On("DeleteItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

	release, err := lock.TryAcquire(context.Background(), "k")
	require.NoError(t, err)
	assert.NotPanics(t, release)
}
