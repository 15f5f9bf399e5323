// Package auth provides credential storage and bearer token handling for
// itemvault.
//
// It has two parts:
//   - CredentialStore: username to password-hash records behind a
//     UserRepository (memory, SQLite or Redis), hashed with bcrypt or
//     Argon2id
//   - TokenService: HS256 JWTs in two classes, access and refresh, each with
//     its own secret and lifetime
//
// Every token verification failure (malformed, bad signature, expired,
// unknown subject) is reported as ErrTokenInvalid. The underlying cause is
// wrapped for logging but callers must not branch on it.
//
// Refresh tokens are not tracked server-side. Refreshing issues a new pair
// and the old refresh token stays usable until it expires.
package auth
