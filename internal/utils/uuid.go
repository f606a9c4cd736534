// Package utils provides general-purpose helper utilities used across
// different parts of the application. Includes tools for identifier
// generation, content digests and request signing.
package utils

import "github.com/google/uuid"

type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a time-ordered UUIDv7 string, falling back to a random
// UUIDv4 if the platform clock refuses to cooperate. Time-ordered IDs keep
// equal-priority queue items draining in insertion order even when rows are
// compared by identifier.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
