// Package models defines the inventory entities shared by the remote client,
// the allocation reconciler and the console API.
//
// # Entities
//
//   - HardwareSet: a named pool of interchangeable units with a fixed capacity.
//   - Project: a named group of users holding per-hardware-set allocations.
//
// Field names and JSON tags follow the remote inventory service wire format, so the
// same structs are decoded from responses and encoded back out by the console API.
package models
