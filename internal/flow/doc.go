// Package flow is the quiz flow engine: condition evaluation, next-node
// navigation, structure validation, path simulation and run analytics.
//
// Every function here is a pure computation over collections handed in by the
// caller. Nothing is mutated, nothing blocks, and nothing is shared between
// calls, so all of it is safe to call concurrently on the same inputs.
package flow
