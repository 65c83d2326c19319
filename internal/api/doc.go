// Package api implements the HTTP surface of the extraction service:
// task submission, task retrieval, task listing, and queue status.
// Handlers translate between HTTP and the service layer and never
// touch storage or the queue directly.
package api
