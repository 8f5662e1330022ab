// Package telemetry configures structured logging for lineagekit commands.
//
// SetupLogger builds a slog handler from a level and a format ("json" or
// "text") and installs it as the process default. Loggers travel through a
// context with WithLogger and FromContext.
package telemetry
