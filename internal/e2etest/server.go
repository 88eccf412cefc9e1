package e2etest

import (
	"context"
	"fmt"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/logging"
	"io"
	"log/slog"
)

type Server struct {
	url    string
	client *Client
	cancel context.CancelCauseFunc
	done   chan struct{}
	err    error
}

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "Addr"

var errShutdown = errors.NewSentinel("server shut down")

// StartServer starts the test server, waits for it to be ready, and return the server URL for testing.
//
// logSink is the writer to which the server logs are written. You usually want to use [io.Discard].
// lookupEnv is a function that returns the value of an environment variable. It has same signature as [os.LookupEnv].
// run is the function that starts the server. We expect the server to log the address it's listening on with
// [LogAddrKey].
func StartServer(
	ctx context.Context,
	logSink io.Writer,
	lookupEnv func(string) (string, bool),
	run func(context.Context, *slog.Logger, func(string) (string, bool)) error,
) (*Server, error) {
	ctx, cancel := context.WithCancelCause(ctx)

	// We need to grab the dynamically allocated port from the log output.
	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == LogAddrKey {
				select {
				case addrCh <- a.Value.String():
				default:
				}
			}
			return a
		},
	})))

	s := &Server{ //nolint:exhaustruct // url and client are set once the server is ready
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := run(ctx, logger, lookupEnv); err != nil {
			s.err = err
			cancel(err)
		}
	}()
	select {
	case <-ctx.Done():
		<-s.done
		return nil, errors.Wrap(context.Cause(ctx), "server stopped before it was ready")
	case addr := <-addrCh:
		s.url = fmt.Sprintf("http://%s", addr)
		s.client = NewClient(s.url)
		if err := s.client.WaitForReady(ctx, "/api/healthy"); err != nil {
			return nil, errors.Join(errors.Wrap(err, "wait for ready"), s.Shutdown())
		}
		return s, nil
	}
}

func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// Shutdown cancels the server context and returns the error run returned, once it has.
func (s *Server) Shutdown() error {
	s.cancel(errShutdown)
	<-s.done
	return s.err
}
