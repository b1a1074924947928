package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridflow/internal/dataset"
)

// fakeTransport records sent requests and lets tests script responses.
type fakeTransport struct {
	mutex     sync.Mutex
	sent      []*Request
	sendErr   error
	responses chan *Response
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{responses: make(chan *Response, 16)}
}

func (f *fakeTransport) Send(req *Request) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeTransport) Responses() <-chan *Response { return f.responses }

func (f *fakeTransport) Close() error {
	close(f.responses)
	return nil
}

func (f *fakeTransport) sentCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) lastSent() *Request {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.sent[len(f.sent)-1]
}

type doResult struct {
	out *dataset.Dataset
	err error
}

// doAsync runs Do in the background and returns the request once the
// transport has seen it, plus a completion channel.
func doAsync(t *testing.T, client *Client, tr *fakeTransport, op string, payload RequestPayload, onProgress func(ProgressInfo)) (*Request, chan doResult) {
	t.Helper()
	before := tr.sentCount()

	done := make(chan doResult, 1)
	go func() {
		out, err := client.Do(context.Background(), op, payload, onProgress)
		done <- doResult{out: out, err: err}
	}()

	require.Eventually(t, func() bool { return tr.sentCount() > before }, time.Second, time.Millisecond)
	return tr.lastSent(), done
}

func TestClientCorrelatesResponses(t *testing.T) {
	t.Parallel()
	tr := newFakeTransport()
	client := NewClient(context.Background(), tr)
	defer tr.Close()

	req, done := doAsync(t, client, tr, OpFilter, RequestPayload{Dataset: peopleDataset()}, nil)
	require.NotEmpty(t, req.ID)
	assert.Equal(t, OpFilter, req.Op)

	want := peopleDataset()
	tr.responses <- &Response{ID: req.ID, Kind: KindSuccess, Payload: ResponsePayload{Dataset: want}}

	res := <-done
	require.NoError(t, res.err)
	require.NotNil(t, res.out)
	assert.Equal(t, want.Columns, res.out.Columns)
}

func TestClientSurfacesErrorResponses(t *testing.T) {
	t.Parallel()
	tr := newFakeTransport()
	client := NewClient(context.Background(), tr)
	defer tr.Close()

	req, done := doAsync(t, client, tr, OpSort, RequestPayload{Dataset: peopleDataset()}, nil)
	tr.responses <- &Response{ID: req.ID, Kind: KindError, Payload: ResponsePayload{Error: "sort column \"x\" not found in dataset"}}

	res := <-done
	require.EqualError(t, res.err, `sort column "x" not found in dataset`)
	assert.Nil(t, res.out)
}

func TestClientSendFailure(t *testing.T) {
	t.Parallel()
	tr := newFakeTransport()
	tr.sendErr = errors.New("worker pool is closed")
	client := NewClient(context.Background(), tr)
	defer tr.Close()

	out, err := client.Do(context.Background(), OpFilter, RequestPayload{}, nil)
	require.Nil(t, out)
	require.EqualError(t, err, "worker pool is closed")
}

func TestClientRoutesProgressBeforeTerminal(t *testing.T) {
	t.Parallel()
	tr := newFakeTransport()
	client := NewClient(context.Background(), tr)
	defer tr.Close()

	var progress []ProgressInfo
	req, done := doAsync(t, client, tr, OpGroup, RequestPayload{Dataset: peopleDataset()}, func(p ProgressInfo) {
		progress = append(progress, p)
	})

	tr.responses <- &Response{ID: req.ID, Kind: KindProgress, Payload: ResponsePayload{Progress: &ProgressInfo{Processed: 50, Total: 100, Percent: 50}}}
	tr.responses <- &Response{ID: req.ID, Kind: KindProgress, Payload: ResponsePayload{Progress: &ProgressInfo{Processed: 100, Total: 100, Percent: 100}}}
	tr.responses <- &Response{ID: req.ID, Kind: KindSuccess, Payload: ResponsePayload{Dataset: peopleDataset()}}

	require.NoError(t, (<-done).err)
	require.Equal(t, []ProgressInfo{
		{Processed: 50, Total: 100, Percent: 50},
		{Processed: 100, Total: 100, Percent: 100},
	}, progress)
}

func TestClientDropsUnknownIDs(t *testing.T) {
	t.Parallel()
	tr := newFakeTransport()
	client := NewClient(context.Background(), tr)
	defer tr.Close()

	// Stale responses for ids nobody is waiting on must not disturb a
	// live operation.
	tr.responses <- &Response{ID: "abandoned-1", Kind: KindSuccess}
	tr.responses <- &Response{ID: "abandoned-2", Kind: KindProgress, Payload: ResponsePayload{Progress: &ProgressInfo{}}}

	req, done := doAsync(t, client, tr, OpFilter, RequestPayload{Dataset: peopleDataset()}, nil)
	tr.responses <- &Response{ID: req.ID, Kind: KindSuccess, Payload: ResponsePayload{Dataset: peopleDataset()}}

	res := <-done
	require.NoError(t, res.err)
	require.NotNil(t, res.out)
}

func TestClientAbandonsOnCancel(t *testing.T) {
	t.Parallel()
	tr := newFakeTransport()
	client := NewClient(context.Background(), tr)
	defer tr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Do(ctx, OpSort, RequestPayload{Dataset: peopleDataset()}, nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return tr.sentCount() == 1 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// A terminal arriving after abandonment is dropped; the client keeps
	// serving new operations.
	tr.responses <- &Response{ID: tr.lastSent().ID, Kind: KindSuccess, Payload: ResponsePayload{Dataset: peopleDataset()}}

	req, afterDone := doAsync(t, client, tr, OpFilter, RequestPayload{Dataset: peopleDataset()}, nil)
	tr.responses <- &Response{ID: req.ID, Kind: KindSuccess, Payload: ResponsePayload{Dataset: peopleDataset()}}
	res := <-afterDone
	require.NoError(t, res.err)
	require.NotNil(t, res.out)
}
