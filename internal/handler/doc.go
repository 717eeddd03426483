// Package handler implements the HTTP API for family trees.
//
// TreeHandler adapts service.TreeService to chi routes under /api/trees.
// NewRouter adds request ids, panic recovery, zap request logging and CORS,
// and mounts /healthz, /metrics and the /events stream.
//
// # Response Format
//
// Success responses return JSON (200, 201) or 204 with no body. Tree exports
// carry an ETag; a matching If-None-Match gets 304.
//
// Errors return {error, details} with a status derived from the error:
// unknown ids 404, malformed documents and invalid input 400, deleting a
// protected root 403, strict imports that break relation invariants 422
// (with the violations listed).
package handler
