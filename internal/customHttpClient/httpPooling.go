package customHttpClient

import (
	"net/http"

	"github.com/akolanti/NotesRAG/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// PooledClient reuses connections to the LLM backend to avoid per-call
// handshake latency.
func PooledClient() *http.Client {
	return &http.Client{Transport: customTransport}
}
