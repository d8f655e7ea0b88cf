// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (meal.go, feedback.go, errors.go) hold the shared
// types and cross-cutting contracts. No implementation code lives here;
// keeping interfaces on the consumer side prevents circular imports.
package domain
