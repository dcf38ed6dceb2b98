// Package oracle is the boundary to the external combination service.
//
// The crafting engine depends only on the Client contract: an unordered pair
// in, one named element with its glyph and a novelty flag out. Errors are
// split three ways:
//   - transport failures and timeouts are retried inside the client
//   - ErrAbuseDetected is fatal to the whole exploration session
//   - *DecodeError and *StatusError are fatal to the current probe only
package oracle
