// Package validation provides common validation utilities for configuration
// parameters across the courseflow library.
//
// Every function returns a *errors.ValidationError (which matches
// errors.ErrInvalidConfiguration) so constructors and the config loader
// report problems in one consistent format.
package validation
