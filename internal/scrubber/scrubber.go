// Package scrubber removes IP addresses from strings.
package scrubber

import (
	"regexp"
)

const (
	ipv4Address = `\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`

	// ipv6Address matches both compressed and uncompressed addresses,
	// including the ones embedding an IPv4 address at the end.
	ipv6Address = `(([0-9a-fA-F]{0,4}:){2,7}([0-9a-fA-F]{1,4}|` + ipv4Address + `)?)`

	// ipv6Encoded matches URL-encoded addresses (e.g., `1%3A2%3A%3A3`).
	ipv6Encoded = `(([0-9a-fA-F]{0,4}%3[aA]){2,7}[0-9a-fA-F]{0,4})`
)

var (
	scrubberBracketedIPv6WithPort = regexp.MustCompile(`\[(` + ipv6Address + `|` + ipv6Encoded + `)\](:\d{1,5})?`)
	scrubberIPv4WithPort          = regexp.MustCompile(ipv4Address + `(:\d{1,5})?`)
	scrubberIPv6                  = regexp.MustCompile(`(^|[^0-9a-fA-F:.%\w])(` + ipv6Address + `|` + ipv6Encoded + `)`)
)

// Scrub replaces IP addresses (with their optional port) in the
// given string with the `[scrubbed]` placeholder.
func Scrub(s string) string {
	s = scrubberBracketedIPv6WithPort.ReplaceAllString(s, "[scrubbed]")
	s = scrubberIPv4WithPort.ReplaceAllString(s, "[scrubbed]")
	s = scrubberIPv6.ReplaceAllStringFunc(s, scrubIPv6Match)
	return s
}

// scrubIPv6Match preserves the leading separator captured by scrubberIPv6.
func scrubIPv6Match(m string) string {
	sub := scrubberIPv6.FindStringSubmatch(m)
	if len(sub) < 2 {
		return "[scrubbed]"
	}
	return sub[1] + "[scrubbed]"
}
