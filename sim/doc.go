// Package sim provides the building blocks of the fleet dispatch simulator.
//
// # Reading Guide
//
// Start with these files:
//   - request.go: the immutable Request and its type/size service times
//   - queue.go: BoundedQueue, the non-blocking admission boundary
//   - policy.go: the Balancer and its three policies
//   - metrics.go: the concurrent Metrics aggregator
//
// # Architecture
//
// The sim package holds data types and shared state; execution lives in
// sub-packages:
//   - sim/workload/: arrival samplers, request mix, and the Generator loop
//   - sim/cluster/: Server and Dispatcher loops and Simulation lifecycle
//   - sim/trace/: bounded lifecycle event log
//
// # Time
//
// Every timestamp and duration is simulated time from a Clock. ScaledClock
// runs simulated time faster than wall time so long scenarios finish quickly
// while reporting the nominal 100ms/300ms/1000ms service times.
package sim
