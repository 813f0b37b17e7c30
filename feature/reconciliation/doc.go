// Package reconciliation runs a reconciliation of two folders end to end.
//
// The Service discovers file pairs (see discovery), drives the core
// reconcile engine, persists per-pair and global outputs (see output) and,
// when object storage is configured, publishes the output folder under the
// run ID (see publish).
package reconciliation
