// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package label

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ValidateCid reports an error if s is not a syntactically valid
// content identifier hashed with sha2-256, the only digest atproto
// records use for strong refs. The optional Cid field on a label
// pins a specific version of Uri; a malformed or unexpectedly-hashed
// value here would silently fail to pin anything, so the emit path
// validates it eagerly rather than storing garbage.
func ValidateCid(s string) error {
	if s == "" {
		return nil
	}
	parsed, err := cid.Decode(s)
	if err != nil {
		return fmt.Errorf("label: invalid cid %q: %w", s, err)
	}
	if parsed.Prefix().MhType != multihash.SHA2_256 {
		return fmt.Errorf("label: cid %q does not use sha2-256", s)
	}
	return nil
}
