package script

import "regexp"

// compileExtended compiles pattern as a POSIX extended regular
// expression, matching the `regcomp(..., REG_EXTENDED)` semantics the
// original `expect` builtin uses (original_source/src/script.c).
func compileExtended(pattern string) (*regexp.Regexp, error) {
	return regexp.CompilePOSIX(pattern)
}
