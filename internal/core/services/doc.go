// Package services implements the driving port interfaces: the
// ingestion pipeline (extract, chunk, embed, index), the query pipeline
// (analyse, classify, transform, search, fuse, stream), and the
// process-wide catalog of loaded databases. Services orchestrate calls
// to driven ports and contain the ranking logic.
package services
