/*
Package domain contains the core data types of the Arbor dialog engine.

It is deliberately dependency-free: inputs, acts, session state and the
error taxonomy are plain data structures shared between the control tree,
the turn orchestrator and the adapters. The engine never produces
user-facing language; acts are data-only records that a host renders.
*/
package domain
