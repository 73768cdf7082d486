// Package server wires the API handlers into an http.Server with the
// middleware stack: request IDs, logging, metrics, CORS, security headers,
// rate limiting, and session authentication.
package server
