package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestObserveDB(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	require.NoError(t, p.ObserveDB("users.get_by_id", func() error { return nil }))

	err := p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))

	err = p.ObserveDB("users.get_by_username", func() error { return pgx.ErrNoRows })
	require.ErrorIs(t, err, pgx.ErrNoRows)

	// a miss is not an error series
	assert.Equal(t, 1, testutil.CollectAndCount(p.DbErrorsTotal))
}

func TestObserveDBNilProm(t *testing.T) {
	var p *Prom
	called := false

	require.NoError(t, p.ObserveDB("op", func() error { called = true; return nil }))
	assert.True(t, called)

	// no-ops on a nil receiver
	p.ObserveAuth("login", "ok")
	p.ObservePasswordOp("hash", time.Millisecond)
}

func TestClassifyDBErr(t *testing.T) {
	tests := map[string]error{
		"no_rows":         pgx.ErrNoRows,
		"pg_40P01":        &pgconn.PgError{Code: "40P01"},
		"check_violation": &pgconn.PgError{Code: "23514"},
		"timeout":         fmt.Errorf("get user: %w", context.DeadlineExceeded),
		"canceled":        context.Canceled,
		"connection":      &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
		"unknown":         errors.New("boom"),
		"query_canceled":  &pgconn.PgError{Code: "57014"},
	}

	for want, err := range tests {
		assert.Equal(t, want, classifyDBErr(err), "err %v", err)
	}
}

func TestObserveAuth(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveAuth("token", "invalid")
	p.ObserveAuth("token", "invalid")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.AuthResults.WithLabelValues("token", "invalid")))
}

func TestLoggerAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("dev", &buf)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
}

func TestLoggerMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("prod", &buf).With("token", "abc.def.ghi")

	log.Info("login", "username", "alice", "Password", "hunter22", slog.Group("req", "new_password", "n3wpass"))

	out := buf.String()
	assert.NotContains(t, out, "hunter22")
	assert.NotContains(t, out, "n3wpass")
	assert.NotContains(t, out, "abc.def.ghi")
	assert.Contains(t, out, `"username":"alice"`)
	assert.Contains(t, out, redacted)
}

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracerConfig{ServiceName: "todohub"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
