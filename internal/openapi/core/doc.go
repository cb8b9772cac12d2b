// Package core implements the signed HTTP transport shared by every Webull
// OpenAPI client in this repository.
//
// Each request carries the app key, a Unix millisecond timestamp, a uuid
// nonce, and an HMAC-SHA256 signature over the canonical request
// (method, path, sorted query, key, timestamp, nonce). Error responses are
// decoded into APIError so suites can assert on backend error codes.
package core
