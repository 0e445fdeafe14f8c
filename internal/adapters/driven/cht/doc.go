// Package cht implements the directory client and authenticator ports
// against the HTTP API of a CHT instance.
//
// Remote failures are classified here. Rejected writes (HTTP 400) become
// *domain.RejectionError with a reason read from the response body;
// 401 and 403 wrap domain.ErrAuthorization; 404 wraps domain.ErrNotFound;
// gateway errors and failures to reach the instance wrap domain.ErrTransport.
//
// Behaviour that differs between core versions is chosen once per client
// from a capability table keyed by the session's core version.
package cht
