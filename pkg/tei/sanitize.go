package tei

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxExpressionSize bounds XPath expressions received from remote callers.
	DefaultMaxExpressionSize = 2048
	// EnvMaxExpressionSize is the environment variable to override the default
	EnvMaxExpressionSize = "TEIINFO_MAX_XPATH_SIZE"
)

var (
	ErrExpressionTooLarge = errors.New("expression exceeds maximum allowed size")
	ErrInvalidUTF8        = errors.New("expression contains invalid UTF-8 sequences")
	ErrEmptyExpression    = errors.New("empty expression")
)

// SanitizeExpression checks an XPath expression received over the network:
// it enforces a size limit, validates UTF-8 and strips control characters
// other than whitespace, then compiles the result.
func SanitizeExpression(expr string) (string, error) {
	limit := maxExpressionSize()
	if len(expr) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrExpressionTooLarge, len(expr), limit)
	}
	if !utf8.ValidString(expr) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, keep the input as is.
	clean := true
	for _, r := range expr {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if !clean {
		var b strings.Builder
		b.Grow(len(expr))
		for _, r := range expr {
			if !unicode.IsControl(r) || isSafeControl(r) {
				b.WriteRune(r)
			}
		}
		expr = b.String()
	}

	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", ErrEmptyExpression
	}
	if _, err := Compile(expr); err != nil {
		return "", err
	}
	return expr, nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxExpressionSize() int {
	if val := os.Getenv(EnvMaxExpressionSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxExpressionSize
}
