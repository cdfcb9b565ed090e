// Package reactive is a small fine-grained reactive runtime.
//
// Signals hold values. Effects are nodes whose callback reads signals; every
// read made while an effect runs is recorded as an edge, and writing a signal
// schedules its subscribers. Writes made in one synchronous stretch are
// coalesced into a single flush that runs on the host's microtask queue. Each
// rerun first tears down what the previous run built (edges, child nodes,
// cleanups, context bindings) and then tracks a fresh set of edges.
//
// Scopes are nodes without a callback. They never rerun and never track, but
// they own the nodes created inside them, carry context bindings and error
// handlers, and release their whole subtree when disposed.
//
// The scheduler keeps one pending set and does not order updates by height,
// so a node may run more than once in a flush when its own run or a later one
// writes a signal it reads.
package reactive
