package model

// Package model defines the domain data structures shared across the service:
// the job record, its phase state machine, and the partial updates merged
// into it by the registry. Values are plain data; locking is the registry's job.
