// Package compiler turns chat command text into event store requests.
//
// The pipeline for one command body is:
//
//	body → scan.Segment → Sequence/Flag Mappers → assembly → Request
//
// The mappers call the Value Coercer (Coerce), the Operator Parser
// (ParseOperator, Condition) and the Time Resolver (ResolveTime). Every
// field assignment is recorded in text order, so a later write to the
// same field wins. The assembly then merges an explicit filter with a
// logical AND and NormalizeOptions folds option fragments over the
// defaults.
//
// Parsing never fails. Malformed literals degrade to strings, unknown
// flags and operators are ignored, and unterminated spans run to the end
// of the body. Only the dispatchers in Compile return errors, always as
// *StructuralError values.
package compiler
