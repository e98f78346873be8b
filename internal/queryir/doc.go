// Package queryir provides the predicate tree that sits between compiled
// query conditions and the SQL backend.
//
// Compiled requests carry conditions as MongoDB-style maps:
//
//	{"type": {"$in": ["gym", "run"]}, "$or": [{"color": "red"}, ...]}
//
// Parse turns such a map into a sealed Predicate tree, rejecting unknown
// operators and unsafe field names. querysql then renders the tree for a
// concrete SQL dialect.
//
//	[condition map] → Parse → [Predicate] → querysql.Compile → SQL
//
// Validate reports predicates that can never match or cannot run, such as
// an empty $in or an invalid $regex pattern.
package queryir
