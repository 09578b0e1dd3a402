package main

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
)

func TestRedisPinger(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	ping := redisPinger(rdb)

	mock.ExpectPing().SetVal("PONG")
	if err := ping.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	if err := ping.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error to surface")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
