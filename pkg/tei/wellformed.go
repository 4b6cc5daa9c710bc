package tei

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	"github.com/aretw0/teiinfo/pkg/domain"
	"golang.org/x/net/html/charset"
)

// CheckWellFormed reads r to the end and reports the first well-formedness
// error, if any. A nil result means the input is well-formed XML with exactly
// one root element. Declared encodings other than UTF-8 are decoded the same
// way the reader decodes them.
func CheckWellFormed(name string, r io.Reader) []domain.Diagnostic {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	fatal := func(line, col int, msg string) []domain.Diagnostic {
		return []domain.Diagnostic{{
			Severity: domain.SeverityFatal,
			File:     name,
			Line:     line,
			Column:   col,
			Message:  msg,
		}}
	}

	roots, depth := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, col := dec.InputPos()
			var syn *xml.SyntaxError
			if errors.As(err, &syn) && syn.Line != line {
				line, col = syn.Line, 0
			}
			return fatal(line, col, err.Error())
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					line, col := dec.InputPos()
					return fatal(line, col, "element <"+t.Name.Local+"> after the root element")
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				line, col := dec.InputPos()
				return fatal(line, col, "text outside the root element")
			}
		}
	}

	if roots == 0 {
		return fatal(0, 0, "no root element")
	}
	return nil
}
