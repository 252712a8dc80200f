// Package diag defines the diagnostic model shared by every pipeline stage.
//
// Stages never print. They hand findings to a Reporter, usually a BagReporter
// bound to the unit's Bag, and return a Result whose failure state is always
// explained by at least one error-severity entry in that Bag. Rendering lives in
// internal/diagfmt; the driver decides when to stop based on Bag.HasErrors.
//
// Codes are grouped by the error class that produced them:
//
//   - LEX1xxx – LexError (unrecognized input)
//   - SYN2xxx – ParseError (syntax violation)
//   - SEM30xx – NameResolutionError (undefined or ambiguous reference)
//   - SEM31xx – TypeError (type rule violation)
//   - GEN5xxx – BackendError (codegen could not handle valid IR)
//
// Verification failures, external tool failures and configuration errors carry
// no source span and are not diagnostics; see ConfigError and the driver's ICE path.
package diag
