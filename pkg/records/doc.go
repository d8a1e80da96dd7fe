// Package records defines the data model shared by the normalizer, the
// reconciliation engine and the master store.
//
// Multi-valued cells (event titles, history annotations) are persisted as
// pipe-joined text. In memory they are first-class ordered collections
// (LabelSet, History) and each has exactly one parse/serialize pair, so no
// caller splits or joins those strings by hand.
package records
