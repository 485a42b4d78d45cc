// Package patches applies and reverses the fork's ordered patch stack
// against the working tree.
//
// Ordering is total and deterministic: ascending patch ID (derived from
// the filename) on apply, strictly descending on reverse. Patches are
// not commutative — later patches may depend on the cumulative effect
// of earlier ones — so the order is never relaxed. Application stops at
// the first failure; a half-applied stack is reported, never papered
// over.
package patches

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/types"
)

// PatchSuffix is the required patch file extension.
const PatchSuffix = ".patch"

// Discover lists the patch stack in dir, sorted ascending by ID. Files
// without the .patch suffix are ignored. An absent directory yields an
// empty stack, which is valid: a fork may carry no patches at a given
// point.
func Discover(fs types.FS, dir string) ([]types.Patch, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read patch directory %s", dir)
	}

	var stack []types.Patch
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), PatchSuffix) {
			continue
		}
		stack = append(stack, types.Patch{
			ID:   strings.TrimSuffix(entry.Name(), PatchSuffix),
			Path: join(dir, entry.Name()),
		})
	}

	sort.Slice(stack, func(i, j int) bool {
		return stack[i].ID < stack[j].ID
	})
	return stack, nil
}

// Checksum returns the hex sha256 of patch content, the identity used
// by the applied-patch store.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
