// Package engine manages a local vLLM inference engine: probing that the
// vllm python package is installed, launching its API server as a child
// process, and talking to the server's native REST endpoints.
//
// Adapters treat the engine as an opaque [Client]; the concrete
// implementations here are [HTTPClient] (attach to a running server) and
// [Engine] (launch and own the server process).
package engine
