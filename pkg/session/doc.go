/*
Package session orchestrates access to persisted tutorial sessions.

The Manager serializes operations on the same session ID inside the process
with ref-counted mutexes and, when a DistributedLocker is configured, across
replicas. Update wraps the load-transition-save cycle so transports never
lose a concurrent answer or step change.
*/
package session
