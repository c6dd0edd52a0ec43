package seashell

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

func gunzip(t *testing.T, raw []byte) []byte {
	t.Helper()

	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}

	out, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}

	return out
}

func writeGzip(t *testing.T, path string, content []byte) {
	t.Helper()

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)

	_, err := gz.Write(content)
	if err != nil {
		t.Fatal(err)
	}

	closeErr := gz.Close()
	if closeErr != nil {
		t.Fatal(closeErr)
	}

	writeErr := os.WriteFile(path, buf.Bytes(), 0o644)
	if writeErr != nil {
		t.Fatal(writeErr)
	}
}

// fakeRPC is an in-process getAccountInfo endpoint. Addresses absent from
// accounts answer with a null value, the ledger's "uninitialized address"
// state.
type fakeRPC struct {
	mu       sync.Mutex
	accounts map[Address]Account
	requests int
}

func newFakeRPC(accounts map[Address]Account) *fakeRPC {
	if accounts == nil {
		accounts = make(map[Address]Account)
	}

	return &fakeRPC{accounts: accounts}
}

func (f *fakeRPC) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.requests
}

func (f *fakeRPC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests++
	f.mu.Unlock()

	var req rpcRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Method != "getAccountInfo" || len(req.Params) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)

		return
	}

	addrText, _ := req.Params[0].(string)

	addr, addrErr := ParseAddress(addrText)
	if addrErr != nil {
		writeJSON(w, map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32602, "message": "Invalid param: WrongSize"},
		})

		return
	}

	f.mu.Lock()
	acct, ok := f.accounts[addr]
	f.mu.Unlock()

	var value any

	if ok {
		value = map[string]any{
			"lamports":   acct.Lamports,
			"owner":      acct.Owner.String(),
			"data":       []string{base64.StdEncoding.EncodeToString(acct.Data), "base64"},
			"executable": acct.Executable,
			"rentEpoch":  acct.RentEpoch,
		}
	}

	writeJSON(w, map[string]any{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  map[string]any{"context": map[string]any{"slot": 1}, "value": value},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func startFakeRPC(t *testing.T, accounts map[Address]Account) (*httptest.Server, *fakeRPC) {
	t.Helper()

	rpc := newFakeRPC(accounts)
	server := httptest.NewServer(rpc)

	t.Cleanup(server.Close)

	return server, rpc
}

// testFetcher builds a fetcher with a tight retry budget so failure tests
// stay fast.
func testFetcher(endpoint string) *fetcher {
	f := newFetcher(endpoint, nil, 0, discardLogger())
	f.tries = 2
	f.interval = time.Millisecond

	return f
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
