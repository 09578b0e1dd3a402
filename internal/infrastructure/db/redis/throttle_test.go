package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginThrottleBlocked(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	th := NewLoginThrottle(client, 3, time.Minute)

	mock.ExpectGet("login_failures:alice").RedisNil()
	blocked, err := th.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, blocked)

	mock.ExpectGet("login_failures:alice").SetVal("2")
	blocked, err = th.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, blocked)

	mock.ExpectGet("login_failures:alice").SetVal("3")
	blocked, err = th.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, blocked)

	mock.ExpectGet("login_failures:alice").SetErr(errors.New("connection refused"))
	_, err = th.Blocked(ctx, "alice")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginThrottleRecordFailureSetsWindowOnce(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	th := NewLoginThrottle(client, 3, 15*time.Minute)

	mock.ExpectIncr("login_failures:bob").SetVal(1)
	mock.ExpectExpire("login_failures:bob", 15*time.Minute).SetVal(true)
	require.NoError(t, th.RecordFailure(ctx, "bob"))

	mock.ExpectIncr("login_failures:bob").SetVal(2)
	require.NoError(t, th.RecordFailure(ctx, "bob"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginThrottleRecordFailureError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	th := NewLoginThrottle(client, 3, time.Minute)

	mock.ExpectIncr("login_failures:bob").SetErr(errors.New("timeout"))
	assert.Error(t, th.RecordFailure(context.Background(), "bob"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginThrottleReset(t *testing.T) {
	client, mock := redismock.NewClientMock()
	th := NewLoginThrottle(client, 3, time.Minute)

	mock.ExpectDel("login_failures:carol").SetVal(1)
	require.NoError(t, th.Reset(context.Background(), "carol"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
