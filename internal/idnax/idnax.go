// Package idnax contains IDNA extensions.
package idnax

import "golang.org/x/net/idna"

// ToASCII converts an IDNA to ASCII using the UTS #46 standard
// with the lookup profile.
func ToASCII(s string) (string, error) {
	return idna.Lookup.ToASCII(s)
}
