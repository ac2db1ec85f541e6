// Package syncer runs one synchronization cycle over the configured files:
// conditional GET with the remembered entity tag, change detection against the
// local copy, and an atomic write when the content differs. Each file produces
// exactly one Outcome; transport and status failures stay isolated to their
// file, while directory and write failures abort the cycle.
package syncer
