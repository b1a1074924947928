package worker

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/gridflow/internal/ctxlog"
)

// Default event names for the request/response exchange with a remote
// worker process. Progress reports arrive on their own event stream but
// carry the same Response envelope.
const (
	DefaultRequestEvent  = "offload:request"
	DefaultResponseEvent = "offload:response"
	DefaultProgressEvent = "offload:progress"
)

const defaultConnectTimeout = 15 * time.Second

// RemoteOptions configures the connection to a remote worker process.
type RemoteOptions struct {
	// URL is the worker endpoint, e.g. "http://worker:8080/socket.io/".
	URL string

	// Namespace is the socket.io namespace to join. Empty means the
	// root namespace.
	Namespace string

	// RequestEvent, ResponseEvent, and ProgressEvent override the event
	// names used for the exchange. Empty values fall back to the
	// defaults.
	RequestEvent  string
	ResponseEvent string
	ProgressEvent string

	// ConnectTimeout bounds the initial handshake. Zero means a
	// generous default.
	ConnectTimeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// Remote is a Transport backed by a socket.io connection to a worker
// process. Requests are emitted as JSON events and responses arrive on
// a single event stream shared by all in-flight requests.
type Remote struct {
	io           *socket.Socket
	requestEvent string

	mutex     sync.Mutex
	closed    bool
	responses chan *Response
}

// ConnectRemote dials the remote worker and blocks until the socket.io
// handshake completes, the context is cancelled, or the connect timeout
// elapses.
func ConnectRemote(ctx context.Context, opts RemoteOptions) (*Remote, error) {
	logger := ctxlog.FromContext(ctx).With("worker_url", opts.URL)
	logger.Info("Connecting to remote worker...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse worker URL: %w", err)
	}

	sockOpts := socket.DefaultOptions()
	sockOpts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(opts.Namespace, sockOpts)

	r := &Remote{
		io:           io,
		requestEvent: opts.RequestEvent,
		responses:    make(chan *Response, 64),
	}
	if r.requestEvent == "" {
		r.requestEvent = DefaultRequestEvent
	}
	responseEvent := opts.ResponseEvent
	if responseEvent == "" {
		responseEvent = DefaultResponseEvent
	}
	progressEvent := opts.ProgressEvent
	if progressEvent == "" {
		progressEvent = DefaultProgressEvent
	}

	// Listeners are attached before Connect so nothing sent by the
	// worker during the handshake is lost. Progress arrives on its own
	// event but carries the same envelope.
	onMessage := func(data ...any) {
		if len(data) == 0 {
			return
		}
		resp, err := decodeResponse(data[0])
		if err != nil {
			logger.Warn("Discarding undecodable worker message.", "error", err)
			return
		}
		r.deliver(resp)
	}
	io.On(types.EventName(responseEvent), onMessage)
	io.On(types.EventName(progressEvent), onMessage)
	io.On(types.EventName("disconnect"), func(...any) {
		logger.Debug("Remote worker connection closed.")
	})

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to remote worker", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, ok := errs[0].(error)
		if !ok {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("worker connection failed: %w", err)
		}
		return r, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while connecting to worker")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for worker connection", timeout)
	}
}

// Send emits the request to the remote worker. The response, if any,
// arrives later on the Responses channel.
func (r *Remote) Send(req *Request) error {
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return fmt.Errorf("remote worker transport is closed")
	}
	r.mutex.Unlock()

	r.io.Emit(r.requestEvent, req)
	return nil
}

// Responses returns the stream of responses from the remote worker.
func (r *Remote) Responses() <-chan *Response {
	return r.responses
}

// Close disconnects from the remote worker and closes the response
// stream. It is safe to call more than once.
func (r *Remote) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.io.Disconnect()
	close(r.responses)
	return nil
}

func (r *Remote) deliver(resp *Response) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return
	}
	r.responses <- resp
}

// decodeResponse converts a decoded socket.io payload back into a
// Response. The library hands events over as generic JSON values, so
// the payload takes one round trip through the codec.
func decodeResponse(raw any) (*Response, error) {
	data, err := sonic.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-encode worker payload: %w", err)
	}
	var resp Response
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode worker response: %w", err)
	}
	return &resp, nil
}
