// Package connectors provides implementations of the FileSource interface.
// The filesystem connector is the only source today; the package boundary
// keeps corpus enumeration separate from text extraction.
package connectors
