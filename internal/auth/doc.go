// Package auth provides authentication and authorisation for PrintHive.
//
// It implements a flat account model backed by SQLite:
//   - Argon2id password hashing (OWASP recommendation)
//   - JWT access tokens plus opaque API tokens persisted in the tokens table
//   - Bitmask permissions stored per user (no roles, no groups)
//
// Expired API tokens are purged at boot via TokenRepository.DeleteExpired.
package auth
