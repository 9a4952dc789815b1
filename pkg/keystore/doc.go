// Package keystore manages provisioned API key records: lookup, creation,
// rotation, and revocation.
//
// A record carries the one-way hash of its secret, never the plaintext;
// the plaintext appears exactly once, in the Issued value returned by
// Create and Rotate. Backends (memory, postgres) implement the Store
// interface defined here. The sentinel errors ErrNotFound and ErrExists
// are local to key management and never surface through the request
// pipeline.
package keystore
