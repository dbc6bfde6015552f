// Package core defines the shared language of the relalg pipeline.
//
// This package contains:
//   - Query data (ParsedClauses, TableRef, JoinSpec, Query)
//   - The Catalog contract consumed by validation and optimization
//   - The error taxonomy (SyntaxError, SchemaError, AmbiguityError)
//
// The Golden Rule: pkg/core imports ONLY pkg/token, golang.org/x/text and stdlib.
// All other packages depend on core, not the reverse.
package core
