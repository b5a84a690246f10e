// Package build runs complete site builds.
//
// A build resolves the configured collections, ingests and validates each
// one, renders every document body through the stage pipeline and writes the
// fragments together with a per-collection manifest. Entry and document
// problems are collected rather than fatal, so one build reports all of them.
// Builds are journaled to the event store when one is configured.
package build
