// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agoranet/agora/internal/events"
)

func testSlogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// blockingService runs until its context is canceled.
type blockingService struct {
	started chan struct{}
}

func (s *blockingService) Serve(ctx context.Context) error {
	select {
	case s.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return "blocking-service" }

func TestTreeDefaults(t *testing.T) {
	tree := NewTree(testSlogger(), TreeConfig{})

	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("FailureThreshold = %v, want 5.0", tree.config.FailureThreshold)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", tree.config.ShutdownTimeout)
	}
	if tree.Root() == nil {
		t.Fatal("Root() should not be nil")
	}
}

func TestTreeServesAndStops(t *testing.T) {
	tree := NewTree(testSlogger(), DefaultTreeConfig())

	svc := &blockingService{started: make(chan struct{}, 1)}
	tree.AddAPIService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	select {
	case <-svc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("service never started")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}

// fakeHTTPServer blocks in ListenAndServe until Shutdown is called.
type fakeHTTPServer struct {
	startErr error
	done     chan struct{}
	shutdown atomic.Bool
}

func newFakeHTTPServer(startErr error) *fakeHTTPServer {
	return &fakeHTTPServer{startErr: startErr, done: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.done
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(ctx context.Context) error {
	f.shutdown.Store(true)
	close(f.done)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newFakeHTTPServer(nil)
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}

	if !server.shutdown.Load() {
		t.Error("Shutdown was never called")
	}
}

func TestHTTPServiceStartFailure(t *testing.T) {
	startErr := errors.New("listen tcp: address already in use")
	svc := NewHTTPService(newFakeHTTPServer(startErr), time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, startErr) {
		t.Errorf("Serve() error = %v, want wrapped start error", err)
	}
}

func TestHTTPServiceString(t *testing.T) {
	svc := NewHTTPService(newFakeHTTPServer(nil), 0)
	if svc.String() != "http-server" {
		t.Errorf("String() = %q", svc.String())
	}
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout default = %v, want 10s", svc.shutdownTimeout)
	}
}

type closeTrackingPublisher struct {
	events.NopPublisher
	closed atomic.Bool
}

func (p *closeTrackingPublisher) Close() error {
	p.closed.Store(true)
	return nil
}

func TestPublisherServiceClosesOnShutdown(t *testing.T) {
	publisher := &closeTrackingPublisher{}
	svc := NewPublisherService(publisher)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}

	if !publisher.closed.Load() {
		t.Error("publisher was not closed")
	}
}
