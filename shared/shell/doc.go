// Package shell provides infrastructure helpers shared by the command
// and query handlers: retry with exponential backoff for storage
// conflicts, handler result metadata, and the metric/label constants
// used for observability instrumentation.
package shell
