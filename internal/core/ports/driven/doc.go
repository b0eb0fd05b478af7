// Package driven defines the outbound ports of the pipeline core:
// embedding, vector storage, completion, text extraction and
// configuration. Adapters under internal/adapters/driven implement them.
package driven
