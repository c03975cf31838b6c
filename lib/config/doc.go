// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for labelerd.
//
// Configuration is loaded from a single file specified by either the
// LABELERD_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// Key exports:
//
//   - [Config] -- did, signing key path, store path, listen address,
//     auth policy toggle
//   - [Default] -- returns a Config with usable zero-values
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other labelerd package.
package config
