package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyErr() error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
}

func TestWithRetries_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := WithRetries(func() error {
		calls++
		return nil
	}, 3, IsMongoDuplicateKeyError)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetries_RetriesDuplicateKey(t *testing.T) {
	calls := 0
	err := WithRetries(func() error {
		calls++
		if calls < 3 {
			return duplicateKeyErr()
		}
		return nil
	}, 3, IsMongoDuplicateKeyError)
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetries_ExhaustsBudget(t *testing.T) {
	calls := 0
	err := WithRetries(func() error {
		calls++
		return duplicateKeyErr()
	}, 2, IsMongoDuplicateKeyError)
	assert.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt plus two retries
}

func TestWithRetries_NonRetryableFailsFast(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	err := WithRetries(func() error {
		calls++
		return boom
	}, 3, IsMongoDuplicateKeyError)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIsMongoDuplicateKeyError(t *testing.T) {
	assert.True(t, IsMongoDuplicateKeyError(duplicateKeyErr()))
	assert.True(t, IsMongoDuplicateKeyError(mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{{WriteError: mongo.WriteError{Code: 11000}}},
	}))
	assert.False(t, IsMongoDuplicateKeyError(mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 121}},
	}))
	assert.False(t, IsMongoDuplicateKeyError(errors.New("other")))
	assert.False(t, IsMongoDuplicateKeyError(nil))
}
