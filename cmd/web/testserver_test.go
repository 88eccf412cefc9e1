package main

import (
	"context"
	"github.com/myrjola/dfircase/internal/e2etest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"testing"
)

// testLookupEnv serves an in-memory database on a random port, overridden by env.
func testLookupEnv(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := env[key]; ok {
			return v, true
		}
		switch key {
		case "DFIRCASE_ADDR":
			return "localhost:0", true
		case "DFIRCASE_SQLITE_URL":
			return ":memory:", true
		default:
			return "", false
		}
	}
}

type testServer struct {
	client *e2etest.Client
}

// startTestServer starts the test server and waits for it to be ready.
// The server is shut down when the test finishes.
func startTestServer(t *testing.T, w io.Writer, lookupEnv func(string) (string, bool)) testServer {
	t.Helper()
	srv, err := e2etest.StartServer(context.Background(), w, lookupEnv, run)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, srv.Shutdown())
	})
	return testServer{client: srv.Client()}
}

// Do sends body encoded as JSON, or verbatim when it is a []byte, and returns the response with its body read.
func (s *testServer) Do(t *testing.T, method, urlPath string, body any) (*http.Response, []byte) {
	t.Helper()
	resp, data, err := s.client.Do(context.Background(), method, urlPath, body)
	require.NoError(t, err)
	return resp, data
}

// DoJSON is Do that expects status and decodes the response body into dst.
func (s *testServer) DoJSON(t *testing.T, method, urlPath string, body any, status int, dst any) {
	t.Helper()
	require.NoError(t, s.client.DoJSON(context.Background(), method, urlPath, body, status, dst))
}
