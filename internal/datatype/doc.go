/*
Package datatype holds the registry of port data types.

A data type maps a case-insensitive name to a runtime representation
(a cty.Type), a default value and the cosmetic metadata an editor uses to
draw ports of that type. The built-in set (exec, string, numeric, boolean
and list) is installed by NewWithBuiltins; hosts register their own types
on top before any graph is built.

The package also owns the value codec used wherever port values leave the
process: ToNative turns a cty.Value into JSON-compatible Go values and
FromNative goes the other way.
*/
package datatype
