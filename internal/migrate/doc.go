// Package migrate implements the onboarding backfill: it snapshots a user
// collection and merge-writes hasCompletedOnboarding=true into every
// document, one write at a time, stopping at the first failure.
package migrate
