package domain

import "errors"

// ErrDocumentNotFound is returned when a document ID is not part of the corpus.
var ErrDocumentNotFound = errors.New("document not found")

// ErrAnalysisNotFound is returned when a store holds no analysis for a key.
var ErrAnalysisNotFound = errors.New("analysis not found")

// ErrJavaNotFound is returned when no Java runtime can be located.
var ErrJavaNotFound = errors.New("java runtime not found")

// ErrToolNotConfigured is returned when a Java tool (jing, trang) has no jar configured.
var ErrToolNotConfigured = errors.New("tool not configured")

// ErrUnsupportedSchema is returned when the input is not an XML Schema document.
var ErrUnsupportedSchema = errors.New("unsupported schema")
