// Package authkit is a credential-and-session authentication core for small
// multi-tenant applications: it turns an identifier/password pair into a
// verified identity, issues and validates opaque bearer sessions, and gates
// privileged operations behind a bitmask permission model.
//
// Registration is double opt-in:
//   - SignupHandler validates the payload, stages a PendingRegistration with
//     a single-use token, and mails the verification link as a best-effort
//     background task.
//   - VerifyAccountHandler consumes the token and promotes the staging row
//     into a permanent User atomically; a uniqueness race during promotion
//     discards the staging row and reports a conflict.
//
// Sessions are server-side rows keyed by an opaque random id with a fixed
// validity window; expired rows are removed lazily on first read after
// expiry. The Gate composes session resolution, the user repository, and
// the permission model, and enforces the escalation-safety rules around
// granting and revoking administrative capability.
//
// All durable state lives in the injected relational store (Bun). Outbound
// email is an injected Mailer capability whose failures never roll back a
// workflow.
package authkit
