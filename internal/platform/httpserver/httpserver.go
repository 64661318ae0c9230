// Package httpserver builds the portal's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with timeouts sized for a JSON API whose
// largest payloads are form responses and MOV metadata.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
