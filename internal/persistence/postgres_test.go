package persistence

import (
	"context"
	"testing"
)

func TestPostgresPingWithoutPool(t *testing.T) {
	var missing *Postgres
	if err := missing.Ping(context.Background()); err == nil {
		t.Fatal("nil wrapper must report an error")
	}
	if err := (&Postgres{}).Ping(context.Background()); err == nil {
		t.Fatal("unconfigured pool must report an error")
	}
}
