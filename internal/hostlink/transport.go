package hostlink

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/compstash/internal/ctxlog"
)

// Options configures a socket.io connection to a host.
type Options struct {
	URL                string
	Namespace          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// socketConn is the part of *socket.Socket the transport uses.
type socketConn interface {
	Connected() bool
	Id() string
	Emit(ev string, args ...any) error
	Once(ev types.EventName, listeners ...types.Listener) error
	RemoveAllListeners(ev types.EventName) bool
	Disconnect() *socket.Socket
}

// SocketTransport is a Transport over a socket.io client.
type SocketTransport struct {
	io     socketConn
	logger *slog.Logger
}

var _ Transport = (*SocketTransport)(nil)

type callResult struct {
	raw json.RawMessage
	err error
}

// Dial connects to the host and returns a Host using the connection.
func Dial(ctx context.Context, opts Options) (*Host, error) {
	t, err := DialTransport(ctx, opts)
	if err != nil {
		return nil, err
	}
	return New(ctx, t, opts.Timeout), nil
}

// DialTransport opens the socket.io connection and waits for it to be
// established.
func DialTransport(ctx context.Context, opts Options) (*SocketTransport, error) {
	logger := ctxlog.FromContext(ctx).With("url", opts.URL)
	logger.Info("Connecting to host...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(namespace, sopts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to host", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketTransport{io: io, logger: logger}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}
}

// Call implements Transport.
func (t *SocketTransport) Call(ctx context.Context, method string, args any) (json.RawMessage, error) {
	if !t.io.Connected() {
		return nil, fmt.Errorf("socket.io client is not connected")
	}
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s arguments: %w", method, err)
	}
	var payload map[string]any
	if err := json.Unmarshal(rawArgs, &payload); err != nil {
		return nil, fmt.Errorf("%s arguments must encode to an object: %w", method, err)
	}

	id := uuid.NewString()
	replyEvent := types.EventName(ReplyEventPrefix + id)
	done := make(chan callResult, 1)
	t.io.Once(replyEvent, func(data ...any) {
		if len(data) == 0 {
			done <- callResult{err: fmt.Errorf("empty reply to %s", method)}
			return
		}
		raw, err := json.Marshal(data[0])
		if err != nil {
			done <- callResult{err: fmt.Errorf("failed to re-encode %s reply: %w", method, err)}
			return
		}
		done <- decodeReply(method, raw)
	})

	ctxlog.FromContext(ctx).Debug("Emitting call", "event", CallEvent, "method", method, "id", id)
	t.io.Emit(CallEvent, map[string]any{"id": id, "method": method, "args": payload})

	select {
	case <-ctx.Done():
		t.io.RemoveAllListeners(replyEvent)
		return nil, fmt.Errorf("waiting for %s reply: %w", method, ctx.Err())
	case res := <-done:
		return res.raw, res.err
	}
}

func decodeReply(method string, raw []byte) callResult {
	var reply Reply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return callResult{err: fmt.Errorf("malformed %s reply: %w", method, err)}
	}
	if reply.Error != nil {
		return callResult{err: &RemoteError{Method: method, Code: reply.Error.Code, Message: reply.Error.Message}}
	}
	return callResult{raw: reply.Result}
}

// Close implements Transport.
func (t *SocketTransport) Close() error {
	t.logger.Info("Disconnecting from host", "sid", t.io.Id())
	t.io.Disconnect()
	return nil
}
