// Package signer mints and verifies the short-lived access tokens that sit in
// front of passage sessions.
//
// The session lifecycle never calls it: callers mint an access token for a
// user after a successful Issue or Rotate, and verify tokens on their own
// request paths. Tokens are PASETO v4.public (Ed25519) carrying minimal
// uid/sid claims.
package signer
