package citymap

import "testing"

// TestProviderID_CuratedMappings verifies that curated display names resolve
// to their explicit WAQI identifiers.
func TestProviderID_CuratedMappings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "multi word", in: "Mexico City", want: "mexico-city"},
		{name: "single word", in: "Delhi", want: "delhi"},
		{name: "three words", in: "Ho Chi Minh City", want: "ho-chi-minh-city"},
		{name: "saint prefix", in: "Saint Petersburg", want: "saint-petersburg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ProviderID(tc.in); got != tc.want {
				t.Fatalf("ProviderID(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// TestProviderID_SlugFallback verifies that unmapped names degrade to a
// lowercase-hyphen slug instead of failing.
func TestProviderID_SlugFallback(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "unmapped multi word", in: "Port Moresby", want: "port-moresby"},
		{name: "unmapped single word", in: "Reykjavik", want: "reykjavik"},
		{name: "mixed case", in: "San JOSE", want: "san-jose"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ProviderID(tc.in); got != tc.want {
				t.Fatalf("ProviderID(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	if got := Slug("New Some City"); got != "new-some-city" {
		t.Fatalf("Slug() = %q, want new-some-city", got)
	}
}
