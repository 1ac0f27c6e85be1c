package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscore/scheduler/repository"
)

// The pgxpool-backed Store needs a live Postgres instance to exercise end
// to end; these tests cover the pure helpers (error classification,
// striping, checksum hashing) that don't require one.

func TestClassifyNotFound(t *testing.T) {
	classified := classify("GetSchedule", "schedule", "1", pgx.ErrNoRows)
	require.NotNil(t, classified)
	assert.Equal(t, repository.KindNotFound, classified.Kind)
	assert.False(t, classified.Retryable())
}

func TestClassifyDeadlineExceeded(t *testing.T) {
	classified := classify("GetSchedule", "schedule", "1", context.DeadlineExceeded)
	require.NotNil(t, classified)
	assert.Equal(t, repository.KindTimeout, classified.Kind)
	assert.True(t, classified.Retryable())
}

func TestClassifySerializationFailureIsRetryable(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.SerializationFailure, Message: "could not serialize access"}
	classified := classify("StoreSchedule", "schedule", "1", pgErr)
	require.NotNil(t, classified)
	assert.Equal(t, repository.KindQuerySerialization, classified.Kind)
	assert.True(t, classified.Retryable())
}

func TestClassifyConnectionExceptionClass(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "08006", Message: "connection failure"}
	classified := classify("HealthCheck", "postgres", "", pgErr)
	assert.Equal(t, repository.KindConnection, classified.Kind)
}

func TestClassifyUnknownPgErrorIsQueryOther(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	classified := classify("StoreSchedule", "schedule", "1", pgErr)
	assert.Equal(t, repository.KindQueryOther, classified.Kind)
	assert.False(t, classified.Retryable())
}

func TestClassifyGenericErrorIsInternal(t *testing.T) {
	classified := classify("StoreSchedule", "schedule", "1", errors.New("boom"))
	assert.Equal(t, repository.KindInternal, classified.Kind)
}

func TestStripeForIsStableAndSpreads(t *testing.T) {
	s := &Store{}
	a := s.stripeFor(42)
	b := s.stripeFor(42)
	assert.Same(t, a, b)

	distinct := map[int]bool{}
	for id := int64(0); id < stripeCount*4; id++ {
		mu := s.stripeFor(id)
		for i := range s.stripes {
			if mu == &s.stripes[i] {
				distinct[i] = true
			}
		}
	}
	assert.Greater(t, len(distinct), 1)
}

func TestHashChecksumIsDeterministicAndNonNegative(t *testing.T) {
	a := hashChecksum("abc123")
	b := hashChecksum("abc123")
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, int64(0))
}
