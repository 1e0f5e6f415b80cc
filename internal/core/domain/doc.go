// Package domain contains the core entities of the doclens retrieval
// pipeline: extracted documents, chunks, embedding databases, chat
// messages, and the intermediate query-pipeline results.
//
// Domain types have no dependencies on adapters or external services.
package domain
