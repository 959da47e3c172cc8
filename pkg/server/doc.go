// Package server serves a template as a live view over websockets.
//
// Every websocket connection gets its own view. The view's live tree is a
// stream.Tree, so each render cycle is sent to the client as one binary
// ops frame. Client events are dispatched to the view and the resulting
// cycle is streamed back. Posting a JSON object to /data merges it into
// the shared data context and updates every connected view.
//
// Routes:
//
//	GET  /          server-rendered HTML for the current data
//	GET  /live      websocket endpoint (Config.WSPath)
//	POST /data      merge a JSON object into the data context
//	GET  /healthz   liveness probe
//	GET  /metrics   Prometheus metrics (when a registry is configured)
package server
