package query

import (
	"net/url"
	"strconv"
	"strings"
)

type pair struct {
	key   string
	value string
}

// Values is an ordered query representation. Unlike url.Values it keeps the
// order in which pairs were parsed or set, and it is mutated in place so
// every holder of a *Values observes commits.
type Values struct {
	pairs []pair
}

// New returns an empty Values.
func New() *Values {
	return &Values{}
}

// Parse decodes an application/x-www-form-urlencoded query. A leading "?"
// is ignored. Malformed escapes are kept as literal text while the valid
// ones around them are still decoded.
func Parse(raw string) *Values {
	v := New()

	raw = strings.TrimPrefix(raw, "?")

	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}

		key, value, _ := strings.Cut(part, "=")
		v.Append(unescape(key), unescape(value))
	}

	return v
}

// Set replaces the first pair for key and drops any later ones. A key not
// yet present is appended.
func (v *Values) Set(key, value string) {
	out := v.pairs[:0]
	found := false

	for _, p := range v.pairs {
		if p.key != key {
			out = append(out, p)
			continue
		}

		if !found {
			out = append(out, pair{key: key, value: value})
			found = true
		}
	}

	if !found {
		out = append(out, pair{key: key, value: value})
	}

	v.pairs = out
}

// Append adds a pair without touching existing pairs for key.
func (v *Values) Append(key, value string) {
	v.pairs = append(v.pairs, pair{key: key, value: value})
}

// Len returns the number of pairs, duplicates included.
func (v *Values) Len() int {
	return len(v.pairs)
}

// Range calls fn for each pair in order until fn returns false.
func (v *Values) Range(fn func(key, value string) bool) {
	for _, p := range v.pairs {
		if !fn(p.key, p.value) {
			return
		}
	}
}

// Replace makes v hold exactly the pairs of other.
func (v *Values) Replace(other *Values) {
	v.pairs = append(v.pairs[:0], other.pairs...)
}

// Clone returns an independent copy of v.
func (v *Values) Clone() *Values {
	return &Values{pairs: append([]pair(nil), v.pairs...)}
}

// Encode renders v as an application/x-www-form-urlencoded string without
// a leading "?".
func (v *Values) Encode() string {
	var b strings.Builder

	for i, p := range v.pairs {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}

	return b.String()
}

// String implements fmt.Stringer.
func (v *Values) String() string {
	return v.Encode()
}

// unescape decodes "+" and every well-formed %XX escape in s. Malformed
// escapes stay literal, as URLSearchParams does.
func unescape(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s):
			n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				b.WriteByte(c)
				continue
			}

			b.WriteByte(byte(n))
			i += 2
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
