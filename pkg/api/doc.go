// Package api defines the wire types and error taxonomy for the Einlass
// admission gateway.
//
// This package provides the data types shared by every layer of the gateway:
// the chat request/response pair forwarded to backend adapters, and the
// classified APIError taxonomy that admission decisions are reported through.
// Each error type corresponds to exactly one HTTP status; the mapping lives
// in pkg/transport.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O.
//
// Core types:
//   - [ChatRequest]: Client prompt submitted for dispatch
//   - [ChatResponse]: Backend adapter output returned to the client
//   - [APIError]: Classified error with type, message, and decision metadata
package api
