/*
Package session serializes access to conversation sessions.

A Manager pairs a ports.StateStore with per-session locks (and, optionally, a
distributed lock) so that at most one turn mutates a session at a time, even
across replicas sharing the same store.
*/
package session
