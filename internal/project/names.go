package project

import (
	"strings"
	"unicode"
)

// IsQualifiedName reports whether name is a dot-separated chain of Java
// identifiers, e.g. "java.lang".
func IsQualifiedName(name string) bool {
	if name == "" {
		return false
	}
	for _, seg := range strings.Split(name, ".") {
		if !isIdent(seg) {
			return false
		}
	}
	return true
}

func isIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 && r != '_' && r != '$' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
