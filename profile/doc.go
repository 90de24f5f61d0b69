// Package profile loads and validates binpatch profiles.
//
// A profile names the file to patch and the four byte sequences that
// drive a patch: the search pattern, the target word inside it, the
// replacement for the target word, and the marker that identifies a
// patched file. Profiles are read from YAML:
//
//	profiles:
//	- name: dht
//	  file: dht
//	  pattern: "48 8B ?? ?? 74 65 73 74 00"
//	  target: "74 65 73 74"
//	  replacement: "70 72 6F 64"
//	  marker: "70 72 6F 64 00"
//	  if: size > 1024
//
// A Spec is the raw, on-disk form. Compile checks a Spec and produces an
// immutable Profile. Before compiling, a Spec can be overlaid with a
// JSON merge patch (RFC 7386), given as JSON or YAML text.
//
// The optional "if" field is an expr-lang boolean expression evaluated
// against the facts of the target file: name, path, size, mode and env.
package profile
