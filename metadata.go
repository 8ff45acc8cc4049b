package epubedit

import (
	"fmt"

	"github.com/beevik/etree"
)

// extractMetadata converts the package document into a Metadata record.
//
// The metadata section's direct children are visited once in document order.
// Single-valued fields are overwritten, so the last matching element wins;
// multi-valued fields append. The same element-to-field mapping drives
// Commit through dateKindOf and identifierKindOf.
func extractMetadata(p *packageDocument) (Metadata, error) {
	version, ok := p.version()
	if !ok || version == "" {
		return Metadata{}, fmt.Errorf("epub: package element has no version attribute: %w", ErrMalformedXML)
	}

	md := Metadata{Version: version}
	if p.metadata == nil {
		return md, nil
	}

	for _, el := range p.metadata.ChildElements() {
		text := elementText(el)

		if kind, ok := dateKindOf(el); ok {
			if kind == dateModified {
				md.ModifiedDate = text
			} else {
				md.PublishedDate = text
			}
			continue
		}

		if elementNamespace(el) != nsDC {
			continue
		}
		switch el.Tag {
		case "rights":
			md.Rights = text
		case "identifier":
			if _, ok := attrValue(el, "", "id"); ok {
				md.BookID = text
			}
			switch identifierKindOf(el) {
			case identifierISBN:
				md.ISBN = text
			case identifierASIN:
				md.ASIN = text
			}
		case "creator":
			md.Authors = append(md.Authors, text)
		case "title":
			md.Title = text
		case "language":
			md.Language = text
		case "subject":
			md.Subjects = append(md.Subjects, text)
		case "publisher":
			md.Publisher = text
		}
	}

	return md, nil
}

// dateKindOf classifies el as a date carrier. ok is false for anything that
// is neither a dc:date nor a <meta property="dcterms:modified">; a meta
// without a property attribute is not a date.
func dateKindOf(el *etree.Element) (kind dateKind, ok bool) {
	if isElement(el, nsDC, "date") {
		return classifyDate(opfAttr(el, "event"), false), true
	}
	if el.Tag == "meta" && isPackageNamespace(elementNamespace(el)) {
		if prop, _ := attrValue(el, "", "property"); prop == propertyModified {
			return classifyDate("", true), true
		}
	}
	return datePublished, false
}

// identifierKindOf classifies a dc:identifier element.
func identifierKindOf(el *etree.Element) identifierKind {
	return classifyIdentifier(opfAttr(el, "scheme"), elementText(el))
}
