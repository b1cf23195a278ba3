// Package domains canonicalizes company websites and email addresses into
// comparable root domains. Pure functions, no I/O
package domains

import (
	"strings"
)

// Canonical strips protocol, credentials, "www.", port, path and query from a
// URL or email address and lower-cases the remaining host.
// "https://www.Underline.COM/about" -> "underline.com", ok=true.
// Returns ok=false when no host survives
func Canonical(urlOrEmail string) (string, bool) {
	s := strings.TrimSpace(strings.ToLower(urlOrEmail))
	if s == "" {
		return "", false
	}

	// email: keep everything after the last '@'
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}

	// protocol
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}

	// path, query, fragment
	for _, sep := range []byte{'/', '?', '#'} {
		if i := strings.IndexByte(s, sep); i >= 0 {
			s = s[:i]
		}
	}

	// port
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}

	s = strings.TrimPrefix(s, "www.")
	s = strings.Trim(s, ".")

	if s == "" || !strings.Contains(s, ".") {
		return "", false
	}
	return s, true
}

// Root returns the last two dot-separated labels of a host,
// so "mail.company.com" -> ("company", "com").
// This intentionally does not consult the public suffix list; multi-part TLDs
// like .co.uk are a known limitation
func Root(domain string) (label, tld string) {
	parts := strings.Split(strings.Trim(strings.ToLower(strings.TrimSpace(domain)), "."), ".")
	if len(parts) < 2 {
		if len(parts) == 1 {
			return parts[0], ""
		}
		return "", ""
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

// Match reports whether two hosts share the same root domain, TLD included.
// "underline.com" and "underline.cz" compare unequal
func Match(a, b string) bool {
	al, at := Root(a)
	bl, bt := Root(b)
	if al == "" || bl == "" || at == "" || bt == "" {
		return false
	}
	return al == bl && at == bt
}

// FromEmail extracts the canonical domain of an email address.
// ok=false when the address carries no usable domain
func FromEmail(email string) (string, bool) {
	e := strings.TrimSpace(email)
	if !strings.Contains(e, "@") {
		return "", false
	}
	return Canonical(e)
}
