// Package crm provides a small client and project management backend:
// token-based authentication, role-gated registries, and the HTTP
// surface that serves them.
//
// Client lifecycle:
//   - Clients carry a status field persisted via Bun. They are never
//     hard-deleted; DELETE moves a client to inactive and keeps the
//     record and its project history intact.
//   - ClientStateMachine centralizes the transition graph and guards.
//     Deactivation is refused while the client still has pending or
//     in-progress projects, so project references never dangle.
//
// Projects:
//   - Projects reference an existing, active client and the user who
//     created them. Deletes are soft and restricted to the creator or
//     an admin; updates are open to any authenticated subject.
//   - List endpoints filter, sort over a whitelist, and paginate with
//     clamped windows.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the
//     authenticator, the state machine, and the project registry to
//     describe logins, status changes, and project writes. Sinks run
//     best-effort so a slow consumer never blocks a request.
package crm
