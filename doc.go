// Package dormly is the backend for a dormitory room planning product:
// account registration with email OTP confirmation, JWT logins, password
// reset, and a per-user catalog of rooms and the assets placed in them.
//
// Registration lifecycle:
//   - Register stores a pending registration plus a short-lived OTP and
//     emails the code. No account exists yet; repeat submissions supersede
//     the previous pending state.
//   - VerifyOtp checks the code (bounded attempts, lazy expiry) and
//     activates the account. Activation is the only path that creates an
//     account row.
//   - ResendOtp reissues the code while the pending registration is live.
//
// Credentials:
//   - Passwords are hashed with salted PBKDF2-SHA256 and verified in
//     constant time.
//   - Login issues an HS256 JWT whose subject is the account id; Validate
//     enforces issuer, audience and expiry with zero leeway.
//   - Forgot-password issues single-use reset tokens for confirmed
//     accounts only, and its response never reveals whether an account
//     exists.
//
// Storage is Bun over SQLite; every multi-step flow runs inside
// RepositoryManager.RunInTx so the one-live-row-per-email invariants hold
// under concurrent requests.
package dormly
