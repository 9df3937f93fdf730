// Package shape validates the structure of Go values against declarative
// test specifications.
//
// A specification maps member names to expectations:
//
//	shape.Tests{
//	    "id":    "number",
//	    "tags":  "string[]",
//	    "name":  shape.Type("string").Equals("bob"),
//	    "Score": shape.Call(2, 2).Returns("number").Equals(4),
//	    "owner": nil, // existence only
//	}
//
// Supported type names:
//   - Primitive tags: undefined, object, boolean, number, string, symbol, function
//   - null and array
//   - Element types: "Type[]" checks a non-empty array and its first element
//   - Anything else is a class name (map = Object, slice = Array, struct = its type name)
//
// Every check is reported through a Reporter. Only a malformed
// specification node stops validation, returned as a *SpecError.
package shape
