// Package errors provides application error types for curate.
//
// This package defines:
//   - AppError type with error classification
//   - Error constructors for the selection pipeline
//   - Error type checking helpers
//
// # Error Types
//
//   - Configuration: invalid selection, analyzer or optimizer settings
//   - InvalidInput: a candidate pool that cannot be decoded
//   - OptimizerExhausted: every optimizer run failed
//   - Internal: unexpected failure
//
// Empty or undersized candidate pools are not errors; the selection result
// carries an explanatory message instead.
//
// # Usage
//
//	return apperrors.Configuration("target_size must be > 0")
//
//	if apperrors.IsConfiguration(err) {
//	    // reject before any processing
//	}
package errors
