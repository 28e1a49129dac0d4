// Package flows holds the client's recovery state machines behind dependency
// structs. The root package builds the deps once per call and delegates, so
// the bounded-retry and relogin logic stays testable without a transport.
package flows
