// Package flows holds the orchestration behind every token lifecycle
// operation of the root Engine.
//
// Each RunX function takes a typed dependency struct and returns a result
// carrying either its payload or a failure kind. The Engine maps failure kinds
// onto exported sentinel errors, metrics and events. Flows own no resources:
// codec, registry and repositories are handed in by the Engine.
//
// This package must not import the root package.
package flows
