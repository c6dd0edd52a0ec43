package seashell

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchAccountSuccess(t *testing.T) {
	t.Parallel()

	addr := Address{7}
	want := Account{
		Lamports:   5_000_000,
		Owner:      Address{1},
		Data:       []byte{1, 2, 3, 4},
		Executable: true,
		RentEpoch:  361,
	}

	server, rpc := startFakeRPC(t, map[Address]Account{addr: want})

	got, err := testFetcher(server.URL).fetchAccount(context.Background(), addr)
	if err != nil {
		t.Fatalf("fetchAccount failed: %v", err)
	}

	if !got.Equal(want) {
		t.Errorf("fetched account mismatch: got %+v, want %+v", got, want)
	}

	if rpc.Requests() != 1 {
		t.Errorf("expected exactly one request, got %d", rpc.Requests())
	}
}

func TestFetchAccountRemoteAbsentIsEmptyRecord(t *testing.T) {
	t.Parallel()

	server, _ := startFakeRPC(t, nil)

	got, err := testFetcher(server.URL).fetchAccount(context.Background(), Address{8})
	if err != nil {
		t.Fatalf("an uninitialized remote address is not an error, got: %v", err)
	}

	want := Account{Owner: SystemProgramID}

	if !got.Equal(want) {
		t.Errorf("expected explicit empty system-owned record, got %+v", got)
	}
}

func TestFetchAccountRetriesThenFails(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	f := testFetcher(server.URL)

	_, err := f.fetchAccount(context.Background(), Address{9})

	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}

	if got := attempts.Load(); got != int64(f.tries) {
		t.Errorf("expected %d attempts, got %d", f.tries, got)
	}

	var sErr *Error

	if !errors.As(err, &sErr) {
		t.Fatal("expected a *seashell.Error")
	}

	if sErr.Address != (Address{9}).String() {
		t.Errorf("error should carry the address, got %q", sErr.Address)
	}

	if sErr.Endpoint != server.URL {
		t.Errorf("error should carry the endpoint, got %q", sErr.Endpoint)
	}
}

func TestFetchAccountRPCErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		writeJSON(w, map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]any{"code": -32602, "message": "Invalid param"},
		})
	}))
	t.Cleanup(server.Close)

	_, err := testFetcher(server.URL).fetchAccount(context.Background(), Address{10})

	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}

	if got := attempts.Load(); got != 1 {
		t.Errorf("protocol rejections should not be retried, got %d attempts", got)
	}
}

func TestFetchAccountUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	_, err := testFetcher(server.URL).fetchAccount(context.Background(), Address{11})

	if !errors.Is(err, ErrFetch) {
		t.Errorf("expected ErrFetch for unreachable endpoint, got %v", err)
	}
}

func TestFetchAccountTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	f := testFetcher(server.URL)
	f.timeout = 50 * time.Millisecond

	start := time.Now()

	_, err := f.fetchAccount(context.Background(), Address{12})

	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch on timeout, got %v", err)
	}

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout should bound the whole operation, took %s", elapsed)
	}
}

func TestFetchAccountMalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{ this is not json"))
	}))
	t.Cleanup(server.Close)

	_, err := testFetcher(server.URL).fetchAccount(context.Background(), Address{13})

	if !errors.Is(err, ErrFetch) {
		t.Errorf("expected ErrFetch for malformed response, got %v", err)
	}
}
