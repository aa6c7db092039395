// Package services contains the core business logic implementations.
// Services implement the driving port interfaces and depend on driven
// port interfaces, keeping the domain independent of adapters.
package services
