package sprite

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewIcon(t *testing.T) {
	tests := []struct {
		rel  string
		want Icon
	}{
		{
			rel: "arrow.svg",
			want: Icon{
				Path:     filepath.Join("root", "arrow.svg"),
				RelPath:  "arrow.svg",
				Name:     "arrow",
				Bundle:   "icons",
				SymbolID: "arrow",
			},
		},
		{
			rel: "nav/home.svg",
			want: Icon{
				Path:     filepath.Join("root", "nav", "home.svg"),
				RelPath:  "nav/home.svg",
				Dir:      "nav",
				Name:     "home",
				Bundle:   "nav",
				SymbolID: "nav-home",
			},
		},
		{
			rel: filepath.Join("brand", "social", "x.svg"),
			want: Icon{
				Path:     filepath.Join("root", "brand", "social", "x.svg"),
				RelPath:  "brand/social/x.svg",
				Dir:      "brand/social",
				Name:     "x",
				Bundle:   "brand-social",
				SymbolID: "brand-social-x",
			},
		},
		{
			rel: "logo.min.svg",
			want: Icon{
				Path:     filepath.Join("root", "logo.min.svg"),
				RelPath:  "logo.min.svg",
				Name:     "logo.min",
				Bundle:   "icons",
				SymbolID: "logo.min",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got := NewIcon("root", tt.rel, "icons")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NewIcon() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBundleNameAndSymbolID(t *testing.T) {
	tests := []struct {
		dir, name        string
		bundle, symbolID string
	}{
		{"", "arrow", "sprites", "arrow"},
		{".", "arrow", "sprites", "arrow"},
		{"nav", "home", "nav", "nav-home"},
		{"a/b/c", "d", "a-b-c", "a-b-c-d"},
	}

	for _, tt := range tests {
		if got := BundleName(tt.dir, "sprites"); got != tt.bundle {
			t.Errorf("BundleName(%q) = %q, want %q", tt.dir, got, tt.bundle)
		}
		if got := SymbolID(tt.dir, tt.name); got != tt.symbolID {
			t.Errorf("SymbolID(%q, %q) = %q, want %q", tt.dir, tt.name, got, tt.symbolID)
		}
	}
}
