// Package types defines the shared data model for nxbuild: the pinned
// upstream revision, the patch stack, sync options and reports, and the
// narrow filesystem interface the rest of the codebase is written against.
//
// Keeping these in a leaf package avoids import cycles between the
// pipeline stages and lets every stage be tested against an in-memory
// filesystem instead of the real working tree.
package types
