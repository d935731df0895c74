package core

import "errors"

var (
	// ErrUnsupportedFormat is returned for file or export formats the
	// service cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrValidation is returned when one or more imported rows fail to
	// decode. Nothing is persisted in that case.
	ErrValidation = errors.New("import validation failed")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoRows is returned when an import contains no data rows.
	ErrNoRows = errors.New("empty file: no data rows")
)
