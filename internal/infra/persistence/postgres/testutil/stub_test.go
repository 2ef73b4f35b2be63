package testutil

import (
	"context"
	"database/sql/driver"
	"io"
	"testing"
)

func TestStubDBStoresAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	insert := "INSERT INTO leafsamples(id,seq,payload) VALUES($1,$2,$3) ON CONFLICT(id) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{"v1", "v2"} {
		if _, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: "a"}, {Value: int64(1)}, {Value: payload}}); err != nil {
			t.Fatalf("ExecContext insert: %v", err)
		}
	}
	if rows := conn.Tables["leafsamples"]; len(rows) != 1 || rows[0]["payload"] != "v2" {
		t.Fatalf("expected upsert to replace row, got %v", rows)
	}

	rows, err := conn.QueryContext(ctx, "SELECT id, payload FROM leafsamples ORDER BY seq", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != "a" || dest[1] != "v2" {
		t.Fatalf("unexpected row: %v", dest)
	}
	if err := rows.Next(dest); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}

	if _, err := conn.ExecContext(ctx, "DELETE FROM leafsamples WHERE id = $1", []driver.NamedValue{{Value: "a"}}); err != nil {
		t.Fatalf("ExecContext delete: %v", err)
	}
	if len(conn.Tables["leafsamples"]) != 0 {
		t.Fatalf("expected row deleted")
	}
}
