// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package labelstore

import "testing"

func TestTranslateURIPattern(t *testing.T) {
	tests := []struct {
		pattern  string
		wantLike string
		wantAll  bool
		wantErr  bool
	}{
		{pattern: "*", wantAll: true},
		{pattern: "did:plc:bb*", wantLike: `did:plc:bb%`},
		{pattern: "did:plc:bbb", wantLike: `did:plc:bbb`},
		{pattern: "did:plc:a_b", wantLike: `did:plc:a\_b`},
		{pattern: "did:plc:a%b", wantLike: `did:plc:a\%b`},
		{pattern: "did:plc:a*b", wantErr: true},
		{pattern: "a**", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			like, matchAll, err := TranslateURIPattern(tt.pattern)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error for %q", tt.pattern)
				}
				return
			}
			if err != nil {
				t.Fatalf("TranslateURIPattern(%q): %v", tt.pattern, err)
			}
			if matchAll != tt.wantAll {
				t.Errorf("matchAll = %v, want %v", matchAll, tt.wantAll)
			}
			if !tt.wantAll && like != tt.wantLike {
				t.Errorf("like = %q, want %q", like, tt.wantLike)
			}
		})
	}
}
