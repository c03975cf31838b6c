// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package labelstore

import (
	"fmt"
	"strings"
)

// likeEscape is the escape character used in generated LIKE clauses,
// paired with an explicit ESCAPE clause so a pattern's literal '%'
// and '_' characters are matched literally rather than as SQL
// wildcards.
const likeEscape = `\`

// TranslateURIPattern converts a client-supplied uriPatterns entry
// into a SQL LIKE pattern, per spec §4.C's "URI-pattern rule". A
// pattern equal to "*" reports matchAll=true and no filter should be
// applied. Any other pattern containing "*" somewhere other than the
// final character is rejected. A trailing "*" becomes a prefix match;
// no trailing "*" becomes an exact match. In both cases, the
// caller-supplied '%' and '_' are escaped so they match literally.
func TranslateURIPattern(pattern string) (likePattern string, matchAll bool, err error) {
	if pattern == "*" {
		return "", true, nil
	}

	star := strings.IndexByte(pattern, '*')
	if star == -1 {
		return escapeLike(pattern), false, nil
	}
	if star != len(pattern)-1 {
		return "", false, fmt.Errorf("labelstore: %q: '*' only allowed as the final character", pattern)
	}

	return escapeLike(pattern[:star]) + "%", false, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, likeEscape, likeEscape+likeEscape)
	s = strings.ReplaceAll(s, "%", likeEscape+"%")
	s = strings.ReplaceAll(s, "_", likeEscape+"_")
	return s
}
