// Package extractors provides implementations of the Extractor interface
// for the file formats the ingestion pipeline accepts. Each extractor knows
// how to pull plain text out of one family of file extensions.
//
// Extractors are registered with the Registry at startup; the registry
// selects the first extractor that supports a given path.
package extractors
