// Package worker implements the transform offload protocol: a
// request/response/progress message algebra keyed by correlation id,
// a handler that executes offloaded operations, an in-process pool
// transport, a socket.io transport for a remote worker, and a client
// that correlates responses for concurrent in-flight operations.
//
// The protocol deliberately assumes nothing about shared memory, so the
// worker may be a goroutine pool or a separate process reached over a
// socket; callers see the same contract either way. There is no
// cancellation on the wire: a caller abandons an operation by ignoring
// further messages for its id, and the client tolerates late terminal
// messages for abandoned ids.
package worker
