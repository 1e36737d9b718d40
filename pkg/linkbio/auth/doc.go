// Package auth issues owner sessions and runs the login handshakes that
// establish them: an OAuth2 authorization-code flow and, for self-hosted
// single-owner deployments, a bcrypt password check.
//
// A successful handshake yields an Identity. The HTTP layer passes it to
// linkbio.Service.SignIn and stores the returned owner ID in a signed session
// cookie via Sessions.
package auth
