// Package eventbridge forwards graph events to a remote editor over
// socket.io. Each graph.Event becomes one emitted message named
// "graph:<event_kind>" whose payload is a JSON-compatible map.
package eventbridge

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/datatype"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventPrefix is prepended to every emitted event name.
const EventPrefix = "graph:"

// DefaultConnectTimeout bounds Connect when Options.Timeout is zero.
const DefaultConnectTimeout = 15 * time.Second

// EmitFunc sends one message to the remote side.
type EmitFunc func(event string, payload map[string]any)

// Options configures Connect.
type Options struct {
	Namespace          string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Bridge forwards events of attached graphs through an EmitFunc.
type Bridge struct {
	emit   EmitFunc
	close  func()
	logger *slog.Logger
}

// New creates a bridge around emit. It is the seam used by tests and by
// callers that bring their own transport.
func New(emit EmitFunc, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{emit: emit, close: func() {}, logger: logger}
}

// Connect dials a socket.io server and returns a bridge emitting on it. It
// blocks until the connection succeeds, fails, ctx is done or the timeout
// expires.
func Connect(ctx context.Context, rawURL string, o Options) (*Bridge, error) {
	logger := ctxlog.FromContext(ctx).With("component", "eventbridge", "url", rawURL)
	logger.Info("Connecting event bridge...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("failed to parse URL: %q needs a scheme and host", rawURL)
	}
	namespace := o.Namespace
	if namespace == "" {
		namespace = "/"
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Event bridge connected.", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Event bridge connect_error fired.", "error", err)
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	b := New(func(event string, payload map[string]any) {
		io.Emit(event, payload)
	}, logger)
	b.close = func() {
		logger.Info("Closing event bridge.", "sid", io.Id())
		io.Disconnect()
	}
	return b, nil
}

// Attach subscribes the bridge to g and returns the function that detaches
// it again.
func (b *Bridge) Attach(g *graph.Graph) (detach func()) {
	graphID := g.ID()
	return g.Subscribe(func(ev graph.Event) {
		payload := Payload(ev)
		payload["graph"] = graphID
		b.emit(EventPrefix+ev.Kind.String(), payload)
	})
}

// Close disconnects the underlying transport, if any.
func (b *Bridge) Close() {
	b.close()
}

// Payload renders ev as a JSON-compatible map. Values that cannot be
// converted are reported under "value_error" instead of "value".
func Payload(ev graph.Event) map[string]any {
	payload := map[string]any{"kind": ev.Kind.String()}
	if ev.Node != nil {
		payload["node"] = ev.Node.ID()
		payload["node_name"] = ev.Node.Name()
		payload["node_type"] = ev.Node.Type()
	}
	if ev.Port != nil {
		payload["port"] = ev.Port.Name()
		payload["port_ref"] = ev.Port.Ref()
	}
	if len(ev.Peers) > 0 {
		peers := make([]string, 0, len(ev.Peers))
		for _, p := range ev.Peers {
			peers = append(peers, p.Ref())
		}
		payload["peers"] = peers
	}
	if ev.Value != cty.NilVal {
		native, err := datatype.ToNative(ev.Value)
		if err != nil {
			payload["value_error"] = err.Error()
		} else {
			payload["value"] = native
		}
	}
	if ev.Kind == graph.NodeTicked {
		payload["delta"] = ev.Delta
	}
	return payload
}
