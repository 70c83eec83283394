// Package cli constructs the onboarding-migrator command-line interface, wiring
// the Cobra command hierarchy, the Viper-backed configuration loader, and zap
// structured logging. It exposes helpers to build application instances and to
// execute the default command set.
package cli
