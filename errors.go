package epubedit

import "errors"

// Sentinel errors returned by the epubedit package. Every error returned by
// Load and Commit wraps exactly one of these, so callers can branch with
// errors.Is.
var (
	// ErrArchive indicates the input is not a readable ZIP archive, or the
	// destination directory cannot be created.
	ErrArchive = errors.New("epub: invalid archive")

	// ErrPackageNotFound indicates neither META-INF/container.xml nor any of
	// the conventional fallback paths names an existing package document.
	ErrPackageNotFound = errors.New("epub: package document not found")

	// ErrMalformedXML indicates container.xml or the package document could
	// not be parsed, or the package element lacks a version attribute.
	ErrMalformedXML = errors.New("epub: malformed XML")

	// ErrIO indicates a filesystem failure during extraction, scratch
	// directory handling or archive assembly.
	ErrIO = errors.New("epub: i/o failure")

	// ErrDRMProtected indicates the archive is protected by DRM
	// (e.g., Adobe ADEPT, Apple FairPlay, Readium LCP) and cannot be edited.
	ErrDRMProtected = errors.New("epub: file is DRM protected")

	// ErrUnknownField indicates a field name outside the recognized set.
	ErrUnknownField = errors.New("epub: unknown metadata field")

	// ErrReadOnlyField indicates an attempt to set a field that Commit never
	// writes (bookid).
	ErrReadOnlyField = errors.New("epub: metadata field is read-only")

	// ErrInvalidValue indicates a value count that does not fit the field,
	// such as two values for a single-valued field.
	ErrInvalidValue = errors.New("epub: invalid metadata value")
)
