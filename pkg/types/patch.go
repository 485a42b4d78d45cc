package types

// Patch is a single named unit of the patch stack. The ID is the patch
// filename without its extension and defines the total apply order:
// patches apply in ascending ID order and reverse in descending order.
type Patch struct {
	// ID is the patch identifier, e.g. "0001-branding".
	ID string

	// Path is the absolute path to the patch file.
	Path string
}

// ApplyReport describes the outcome of a patch stack operation. It is a
// first-class value so callers can inspect exactly which patches touched
// the tree before a failure, instead of reconstructing that from logs.
type ApplyReport struct {
	// Applied lists patch IDs applied by this run, in apply order.
	Applied []string

	// AlreadyApplied lists patch IDs that were recorded as applied by a
	// previous run and were skipped.
	AlreadyApplied []string

	// Reversed lists patch IDs reversed by this run, in reverse order.
	Reversed []string

	// Failed is the ID of the patch that stopped the run, if any.
	Failed string
}

// Touched reports whether the run mutated the working tree at all.
func (r ApplyReport) Touched() bool {
	return len(r.Applied) > 0 || len(r.Reversed) > 0
}
