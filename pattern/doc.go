// Package pattern represents the byte signatures binpatch searches for.
//
// A Pattern is a fixed sequence of bytes in which some positions are
// wildcards. A wildcard matches any byte in the searched file. There are
// two kinds of wildcard: a hole ("??" in text) carries no value at all,
// while a masked byte keeps a nominal value but is not compared during a
// file search. The nominal value lets a target word be located inside a
// pattern even where the surrounding executable bytes vary across builds.
//
// # Text forms
//
//	pattern.Parse("48 8B ?? ?? 74 65")     // holes
//	pattern.Parse("488b????7465")          // same, unseparated
//	pattern.ParseMasked("BB CC DD", "x?x") // CC is masked
package pattern
