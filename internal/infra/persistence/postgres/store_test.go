package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"greenleaf/internal/infra/persistence/postgres/testutil"
	"greenleaf/pkg/domain"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreCreatesTableAndLoadsRows(t *testing.T) {
	db, conn := testutil.NewStubDB()
	id := domain.NewID()
	payload, _ := json.Marshal(domain.Sample{Code: "AM-9"})
	conn.Tables["leafsamples"] = []map[string]any{{"id": id, "seq": int64(4), "payload": payload}}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS LEAFSAMPLES") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected leafsamples DDL, got execs: %v", conn.Execs)
	}
	got, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Code != "AM-9" || got.ID != id {
		t.Fatalf("unexpected sample: %+v", got)
	}
	created, err := store.Create(context.Background(), domain.Sample{Code: "next"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rows := conn.Tables["leafsamples"]
	if len(rows) != 2 || rows[1]["id"] != created.ID || rows[1]["seq"] != int64(5) {
		t.Fatalf("expected new row with continued sequence, got %v", rows)
	}
}

func TestMutationsWriteThrough(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	created, err := store.Create(ctx, domain.Sample{Code: "A", Variety: "IAC"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Replace(ctx, created.ID, domain.Sample{Code: "B"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	rows := conn.Tables["leafsamples"]
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	var stored domain.Sample
	if err := json.Unmarshal(rows[0]["payload"].([]byte), &stored); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if stored.Code != "B" || stored.Variety != "" {
		t.Fatalf("expected replaced payload, got %+v", stored)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if len(conn.Tables["leafsamples"]) != 0 {
		t.Fatalf("expected row removed")
	}
}

func TestWriteFailureRestoresWorkingSet(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	created, err := store.Create(ctx, domain.Sample{Code: "keep"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	conn.FailExec = true
	if _, err := store.Create(ctx, domain.Sample{Code: "lost"}); err == nil {
		t.Fatalf("expected create failure")
	}
	if _, err := store.Replace(ctx, created.ID, domain.Sample{Code: "changed"}); err == nil {
		t.Fatalf("expected replace failure")
	}
	if err := store.Delete(ctx, created.ID); err == nil {
		t.Fatalf("expected delete failure")
	}
	samples, _ := store.List(ctx)
	if len(samples) != 1 || samples[0].Code != "keep" {
		t.Fatalf("expected working set restored, got %+v", samples)
	}
}

func TestReadsWaitForPendingWrite(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)

	writing := make(chan struct{})
	release := make(chan struct{})
	conn.BeforeExec = func(string) error {
		close(writing)
		<-release
		return errors.New("disk full")
	}

	createErr := make(chan error, 1)
	go func() {
		_, err := store.Create(ctx, domain.Sample{Code: "lost"})
		createErr <- err
	}()
	<-writing

	listed := make(chan []domain.Sample, 1)
	go func() {
		samples, _ := store.List(ctx)
		listed <- samples
	}()
	select {
	case samples := <-listed:
		t.Fatalf("list returned during a pending write: %+v", samples)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	if err := <-createErr; err == nil {
		t.Fatalf("expected create failure")
	}
	if samples := <-listed; len(samples) != 0 {
		t.Fatalf("rolled back sample was visible: %+v", samples)
	}
}

func TestNewStoreErrors(t *testing.T) {
	cases := map[string]func(*testutil.StubConn){
		"ping":  func(c *testutil.StubConn) { c.FailPing = true },
		"ddl":   func(c *testutil.StubConn) { c.FailExec = true },
		"query": func(c *testutil.StubConn) { c.FailQuery = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			db, conn := testutil.NewStubDB()
			mutate(conn)
			restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
			defer restore()
			if _, err := NewStore(context.Background(), "ignored"); err == nil {
				t.Fatalf("expected %s error", name)
			}
		})
	}
}
