// Package account handles operator authentication against the remote inventory service.
//
// A successful login stores the bearer token through the session, which persists it
// so later CLI invocations and console restarts stay logged in. Logging out clears
// the token and every piece of state registered on the session.
//
// # HTTP Endpoints
//
//   - POST /account/login : Log in {username, password}.
//   - POST /account/register : Create an account {username, password}.
//   - POST /account/logout : End the session.
//   - GET  /account/me : Profile of the logged-in operator.
package account
