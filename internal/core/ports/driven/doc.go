// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): chat and embedding providers, the vector
// index, file persistence, extractors, and prompt storage.
package driven
