// Package provider abstracts the chat backend behind the dispatch
// pipeline. Two adapters are included: a deterministic stub for local
// development and tests, and an OpenAI-compatible Chat Completions
// client for real inference.
//
// Adapters classify every upstream problem themselves so the pipeline
// can map backend failures to a single bad-gateway response with a
// descriptive message.
package provider
