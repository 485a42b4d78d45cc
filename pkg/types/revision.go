package types

// UpstreamRevision is the exact upstream version identifier a build is
// pinned against, e.g. a Chromium release tag like "137.0.7151.69".
// It is opaque to nxbuild: resolved once per invocation and passed
// through to git unmodified.
type UpstreamRevision string

// String returns the revision identifier.
func (r UpstreamRevision) String() string {
	return string(r)
}

// IsZero reports whether no revision has been resolved.
func (r UpstreamRevision) IsZero() bool {
	return r == ""
}
