// Package driven defines interfaces for infrastructure adapters
// (secondary/outbound ports): AI backends, the vector index, the learning
// platform's content and progress stores, and configuration.
//
// Implementations live in internal/adapters/driven.
package driven
