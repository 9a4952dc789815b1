// Package auth verifies presented credentials and authorizes operations
// by scope.
//
// The Authenticator supports two modes: "disabled" (every request becomes
// an anonymous, universally scoped principal; local/dev trust boundaries
// only) and "api_key" (credentials of the form "key_id:secret" verified
// against a RecordSource). Any other mode is rejected at construction.
//
// Key records are resolved through the RecordSource contract, satisfied
// both by keystore backends and by the StaticTable built from
// configuration. Secret comparison is hash-against-hash in constant time;
// every failed verification yields the same generic invalid-credential
// error so responses never reveal which check failed.
package auth
