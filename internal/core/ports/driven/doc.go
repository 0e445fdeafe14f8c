// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DirectoryClient: Writes places, contacts and users to the remote instance
//   - DirectoryClientFactory: Builds a DirectoryClient for a session
//   - Authenticator: Logs in and reads user settings and the core version
//   - PlaceStore: Staged place persistence
//   - SessionStore: Session persistence between invocations
//   - ConfigStore: Contact types, domains and upload tuning
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - UploadObserver: Receives row and table change notifications during an upload.
//   - UploadRecorder: Records upload outcomes and account retries for metrics.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
