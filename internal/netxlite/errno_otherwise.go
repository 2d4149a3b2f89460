//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd || windows)

package netxlite

// classifySyscallError returns an empty string because we do not
// map system call errors on this platform.
func classifySyscallError(err error) string {
	return ""
}
