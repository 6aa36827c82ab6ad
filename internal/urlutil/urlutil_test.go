package urlutil

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"AddsScheme", "acme.com", "https://acme.com", false},
		{"KeepsHTTP", "http://acme.com/about", "http://acme.com/about", false},
		{"LowercasesHost", "https://ACME.com/About", "https://acme.com/About", false},
		{"TrimsSpace", "  acme.com  ", "https://acme.com", false},
		{"Empty", "", "", true},
		{"Javascript", "javascript:alert(1)", "", true},
		{"Data", "data:text/html,hi", "", true},
		{"File", "file:///etc/passwd", "", true},
		{"FTP", "ftp://acme.com", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) expected error, got %q", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) error = %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"acme.com", "https://www.acme.com/About?q=1", "http://acme.com/a/b/"}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", once, err)
		}
		if once != twice {
			t.Fatalf("Normalize not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestSameDomain(t *testing.T) {
	t.Parallel()

	if !SameDomain("https://www.acme.com/about", "https://acme.com") {
		t.Fatal("www prefix should not break domain comparison")
	}
	if SameDomain("https://other.com", "https://acme.com") {
		t.Fatal("different domains reported equal")
	}
	if SameDomain("not a url at %%", "https://acme.com") {
		t.Fatal("unparseable URL should not match")
	}
}

func TestDedupeKey(t *testing.T) {
	t.Parallel()

	a := DedupeKey("https://acme.com/About/")
	b := DedupeKey("https://acme.com/about")
	if a != b {
		t.Fatalf("expected %q == %q", a, b)
	}
	if DedupeKey("https://acme.com/x?q=1#frag") != "https://acme.com/x" {
		t.Fatalf("query and fragment should be stripped, got %q",
			DedupeKey("https://acme.com/x?q=1#frag"))
	}
}

func TestOrigin(t *testing.T) {
	t.Parallel()

	if got := Origin("https://acme.com/deep/path?q=1"); got != "https://acme.com" {
		t.Fatalf("Origin = %q", got)
	}
	if got := Origin(":::"); got != "" {
		t.Fatalf("expected empty origin for junk, got %q", got)
	}
}
