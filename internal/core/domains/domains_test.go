package domains

import "testing"

func TestCanonical(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://www.Underline.COM/about", "underline.com", true},
		{"http://mail.company.com:8080/path?x=1", "mail.company.com", true},
		{"olga.lev@underline.cz", "underline.cz", true},
		{"WWW.EXAMPLE.ORG", "example.org", true},
		{"ftp://www.files.example.net/pub", "files.example.net", true},
		{"user@sub.domain.io", "sub.domain.io", true},
		{"", "", false},
		{"   ", "", false},
		{"localhost", "", false},
		{"justaword", "", false},
	}
	for _, c := range cases {
		got, ok := Canonical(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("Canonical(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestRoot(t *testing.T) {
	cases := []struct {
		in    string
		label string
		tld   string
	}{
		{"mail.company.com", "company", "com"},
		{"company.com", "company", "com"},
		{"a.b.c.d.example.io", "example", "io"},
		{"UNDERLINE.CZ", "underline", "cz"},
		{"single", "single", ""},
	}
	for _, c := range cases {
		label, tld := Root(c.in)
		if label != c.label || tld != c.tld {
			t.Fatalf("Root(%q) = (%q, %q), want (%q, %q)", c.in, label, tld, c.label, c.tld)
		}
	}
}

func TestMatchIsTLDStrict(t *testing.T) {
	if Match("x.com", "x.cz") {
		t.Fatalf("x.com must not match x.cz")
	}
	if !Match("mail.x.com", "x.com") {
		t.Fatalf("mail.x.com must match x.com")
	}
	if !Match("x.com", "x.com") {
		t.Fatalf("x.com must match itself")
	}
	if Match("underline.com", "underline.cz") {
		t.Fatalf("same label different TLD must not match")
	}
	if Match("", "x.com") {
		t.Fatalf("empty host never matches")
	}
	if Match("noTLD", "noTLD") {
		t.Fatalf("hosts without a TLD never match")
	}
}

func TestFromEmail(t *testing.T) {
	d, ok := FromEmail("Jane.Roe@Underline.com")
	if !ok || d != "underline.com" {
		t.Fatalf("FromEmail = (%q, %v)", d, ok)
	}
	if _, ok := FromEmail("not-an-email"); ok {
		t.Fatalf("expected ok=false for plain string")
	}
}
