package epubedit

import "strings"

// identifierKind is the metadata field a dc:identifier feeds.
type identifierKind int

const (
	identifierGeneric identifierKind = iota
	identifierISBN
	identifierASIN
)

// dateKind is the metadata field a dc:date or dcterms:modified meta feeds.
type dateKind int

const (
	datePublished dateKind = iota
	dateModified
)

// Scheme values and URN prefixes recognised on dc:identifier.
const (
	schemeISBN = "ISBN"
	schemeASIN = "ASIN"
	urnISBN    = "urn:isbn:"
	urnASIN    = "urn:asin:"
)

// Date markers.
const (
	eventModification = "modification"
	eventPublication  = "publication"
	propertyModified  = "dcterms:modified"
)

// classifyIdentifier decides which field an identifier belongs to. A scheme
// attribute is authoritative and matched exactly; only identifiers without
// one fall back to a case-insensitive URN prefix on their text. Load and
// Commit both use this rule, so a value read from an element is written
// back to the same element.
func classifyIdentifier(scheme, text string) identifierKind {
	switch scheme {
	case schemeISBN:
		return identifierISBN
	case schemeASIN:
		return identifierASIN
	case "":
		lower := strings.ToLower(strings.TrimSpace(text))
		switch {
		case strings.HasPrefix(lower, urnISBN):
			return identifierISBN
		case strings.HasPrefix(lower, urnASIN):
			return identifierASIN
		}
	}
	return identifierGeneric
}

// classifyDate decides whether a date element carries the modification
// timestamp. modificationMarker is set for <meta property="dcterms:modified">.
func classifyDate(event string, modificationMarker bool) dateKind {
	if modificationMarker || event == eventModification {
		return dateModified
	}
	return datePublished
}
