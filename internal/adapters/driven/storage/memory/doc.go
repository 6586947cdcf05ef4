// Package memory provides in-memory implementations of the storage ports.
// They back unit tests and the --memory flag, which keeps the vector index
// in process for a throwaway session.
package memory
