// Package e2e drives a running registrar over HTTP with godog scenarios.
//
// Point REGISTRAR_URL at the server (default http://localhost:8080) and run
// `go test -tags e2e ./...` from this directory.
package e2e

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext carries one scenario's HTTP client, last response and the
// random suffix that keeps its names unique across runs.
type TestContext struct {
	BaseURL string
	client  *http.Client
	suffix  string

	lastStatus int
	lastBody   []byte
}

func NewTestContext() *TestContext {
	base := os.Getenv("REGISTRAR_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		BaseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset starts a fresh scenario.
func (tc *TestContext) Reset() {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	tc.suffix = hex.EncodeToString(buf)
	tc.lastStatus = 0
	tc.lastBody = nil
}

// Name turns a scenario label such as "alice.web3" into a name unique to
// this run, e.g. "alice-1a2b3c4d.web3".
func (tc *TestContext) Name(fullName string) string {
	label, ext, ok := strings.Cut(fullName, ".")
	if !ok {
		return fullName + "-" + tc.suffix
	}
	return label + "-" + tc.suffix + "." + ext
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) DELETE(path string, body any) error {
	return tc.do(http.MethodDelete, path, body)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+"/v1"+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

// Account maps a scenario alias such as "alice" to a stable address unique
// to this scenario.
func (tc *TestContext) Account(alias string) string {
	sum := sha256.Sum256([]byte(tc.suffix + "/" + alias))
	return "0x" + hex.EncodeToString(sum[:20])
}

// GetResponseField reads a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("decode response %q: %w", tc.lastBody, err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %q missing from response %s", field, tc.lastBody)
	}
	return v, nil
}
