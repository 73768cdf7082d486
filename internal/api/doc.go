// Package api implements the HTTP handlers for the vidtube REST API:
// account and session management, video upload and lifecycle, watch history,
// and channel subscriptions.
package api
