// Package sim provides the discrete-event simulation engine behind flowsim.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - queue.go: the (time, sequence) ordered command heap
//   - engine.go: the run loop, pacing, pause gate, and control surface
//   - router.go: entity flow between nodes by role
//
// # Architecture
//
// One Engine owns one simulation run: a node graph, a command queue, a
// logical clock, a seeded sampler, and per-counter statistics. Everything
// mutable sits in a single State aggregate so several engines can coexist
// in a process. All commands execute on one goroutine; control methods
// (Pause, Resume, Stop, SetSpeed) and snapshot reads are safe from any
// goroutine.
//
// Scheduled work is a tagged Command value, never a closure, so the queue
// stays inspectable and a run replays deterministically from its seed.
// Generators reschedule themselves; routing between nodes is synchronous
// within the command that triggered it.
//
// Scenario loading lives in sim/scenario; run recording in sim/trace. The
// engine itself consumes only a Graph plus a ConfigLookup and owns no file
// format.
package sim
