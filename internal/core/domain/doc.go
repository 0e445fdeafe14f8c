// Package domain defines the core business entities for usermgr.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Place: A locally staged hierarchy record and its primary contact
//   - ContactType: The schema a place is validated and uploaded against
//   - RemotePlace: The minimal shape of a place observed on the remote instance
//   - UserPayload: Candidate credentials for a remote user account
//   - Session: An authenticated context against a remote instance
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
