// Package syncrepo keeps the on-device goals cache and the remote goals
// service consistent under unreliable connectivity.
//
// Reads come from the local cache first and are refreshed opportunistically
// from the service; a transient network failure never empties a previously
// cached result. Writes land in the cache immediately, so the UI sees them
// with zero latency, then propagate to the service; when propagation fails
// the goal simply stays dirty and a later Reconcile pass pushes it.
//
// Hierarchy changes (Link/Unlink) are optimistic: the cache is mutated
// before the service confirms, and each attempt captures the child's prior
// state so a remote rejection rolls the cache back to exactly what was
// there before.
//
// The repository owns every entity lifecycle transition. The injected
// LocalStore and Service are passive collaborators and never initiate
// changes on their own. Individual failures during bulk reconciliation are
// logged and skipped; one bad goal never blocks the rest.
package syncrepo
