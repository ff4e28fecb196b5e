// Package registry holds the table mapping command names to backend
// handlers. A Builder collects registrations during startup; Build freezes
// them into a Registry that is only ever read, so lookups from concurrent
// dispatch paths need no locking.
package registry
