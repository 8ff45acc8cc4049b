package epubedit

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// qname is a namespace-qualified element or attribute name together with the
// prefix to declare when the document has no binding for ns yet.
type qname struct {
	ns     string
	prefix string
	local  string
}

var (
	dcTitle      = qname{nsDC, "dc", "title"}
	dcCreator    = qname{nsDC, "dc", "creator"}
	dcRights     = qname{nsDC, "dc", "rights"}
	dcLanguage   = qname{nsDC, "dc", "language"}
	dcPublisher  = qname{nsDC, "dc", "publisher"}
	dcSubject    = qname{nsDC, "dc", "subject"}
	dcIdentifier = qname{nsDC, "dc", "identifier"}
	dcDate       = qname{nsDC, "dc", "date"}
	opfMeta      = qname{nsOPF, "opf", "meta"}

	opfScheme = qname{nsOPF, "opf", "scheme"}
	opfEvent  = qname{nsOPF, "opf", "event"}
	property  = qname{local: "property"}
)

// attrSpec is an attribute set on elements created by an upsert.
type attrSpec struct {
	name  qname
	value string
}

// applyMetadata writes every non-empty field of md into p. Empty fields leave
// the document untouched and BookID is never written.
func applyMetadata(p *packageDocument, md Metadata) {
	p.ensureMetadata()

	if md.Version != "" {
		p.setVersion(md.Version)
	}
	version, _ := p.version()

	if md.Title != "" {
		p.upsertSingleValued(dcTitle, md.Title, nil)
	}
	if len(md.Authors) > 0 {
		p.replaceMultiValued(dcCreator, md.Authors)
	}
	if md.Rights != "" {
		p.upsertSingleValued(dcRights, md.Rights, nil)
	}
	if md.Language != "" {
		p.upsertSingleValued(dcLanguage, md.Language, nil)
	}
	if md.Publisher != "" {
		p.upsertSingleValued(dcPublisher, md.Publisher, nil)
	}
	if len(md.Subjects) > 0 {
		p.replaceMultiValued(dcSubject, md.Subjects)
	}
	if md.ISBN != "" {
		p.upsertIdentifier(identifierISBN, schemeISBN, md.ISBN)
	}
	if md.ASIN != "" {
		p.upsertIdentifier(identifierASIN, schemeASIN, md.ASIN)
	}
	if md.PublishedDate != "" {
		p.upsertPublishedDate(md.PublishedDate, version)
	}
	if md.ModifiedDate != "" {
		p.upsertModifiedDate(md.ModifiedDate, version)
	}
}

// upsertSingleValued sets the text of the last metadata child named name for
// which match holds (any such child when match is nil); that is the element
// extractMetadata reads the field from. Without one, a new element carrying
// attrs is appended to the metadata section.
func (p *packageDocument) upsertSingleValued(name qname, text string, match func(*etree.Element) bool, attrs ...attrSpec) *etree.Element {
	var target *etree.Element
	for _, el := range p.ensureMetadata().ChildElements() {
		if isElement(el, name.ns, name.local) && (match == nil || match(el)) {
			target = el
		}
	}
	if target == nil {
		target = p.appendElement(name, attrs...)
	}
	target.SetText(text)
	return target
}

// replaceMultiValued removes every metadata child named name, then appends
// one attribute-free element per value, in order.
func (p *packageDocument) replaceMultiValued(name qname, values []string) {
	md := p.ensureMetadata()
	for _, el := range md.ChildElements() {
		if isElement(el, name.ns, name.local) {
			removeElement(md, el)
		}
	}
	for _, v := range values {
		p.appendElement(name).SetText(v)
	}
}

// upsertIdentifier writes the identifier classified as kind; a new one is
// tagged with an opf:scheme so the next Load classifies it the same way.
//
// The package's unique identifier is never a target: it is BookID and the
// font obfuscation key. An existing element that was classified only by its
// URN prefix gains an opf:scheme when value drops the prefix.
func (p *packageDocument) upsertIdentifier(kind identifierKind, scheme, value string) {
	uid, _ := attrValue(p.root, "", "unique-identifier")
	match := func(el *etree.Element) bool {
		if id, ok := attrValue(el, "", "id"); ok && uid != "" && id == uid {
			return false
		}
		return identifierKindOf(el) == kind
	}
	el := p.upsertSingleValued(dcIdentifier, value, match, attrSpec{opfScheme, scheme})
	if identifierKindOf(el) != kind {
		p.setAttr(el, attrSpec{opfScheme, scheme})
	}
}

// upsertPublishedDate writes the dc:date not marked as a modification.
// ePub 2 packages get an explicit opf:event on a new element; ePub 3 drops
// the attribute.
func (p *packageDocument) upsertPublishedDate(value, version string) {
	match := func(el *etree.Element) bool {
		kind, _ := dateKindOf(el)
		return kind == datePublished
	}
	var attrs []attrSpec
	if !isEPub3(version) {
		attrs = append(attrs, attrSpec{opfEvent, eventPublication})
	}
	p.upsertSingleValued(dcDate, value, match, attrs...)
}

// upsertModifiedDate writes the last element classified as the modification
// date, whether a dc:date or a dcterms:modified meta. A new one follows the
// package version's convention.
func (p *packageDocument) upsertModifiedDate(value, version string) {
	var target *etree.Element
	for _, el := range p.ensureMetadata().ChildElements() {
		if kind, ok := dateKindOf(el); ok && kind == dateModified {
			target = el
		}
	}
	if target == nil {
		if isEPub3(version) {
			target = p.appendElement(opfMeta, attrSpec{property, propertyModified})
		} else {
			target = p.appendElement(dcDate, attrSpec{opfEvent, eventModification})
		}
	}
	target.SetText(value)
}

// appendElement adds a new element named name as the last child of the
// metadata section, indented like its siblings, and sets attrs on it.
func (p *packageDocument) appendElement(name qname, attrs ...attrSpec) *etree.Element {
	prefix := p.ensurePrefix(name.ns, name.prefix, false)
	md := p.ensureMetadata()

	var tail *etree.CharData
	if n := len(md.Child); n > 0 {
		if cd, ok := md.Child[n-1].(*etree.CharData); ok && isBlank(cd.Data) {
			tail = cd
			md.RemoveChild(cd)
		}
	}
	if indent := childIndent(md); indent != "" {
		md.CreateText(indent)
	}
	el := md.CreateElement(qualify(prefix, name.local))
	if tail != nil {
		md.AddChild(tail)
	}

	for _, a := range attrs {
		p.setAttr(el, a)
	}
	return el
}

// setAttr sets a on el, declaring the attribute's namespace prefix if needed.
func (p *packageDocument) setAttr(el *etree.Element, a attrSpec) {
	key := a.name.local
	if a.name.ns != "" {
		key = qualify(p.ensurePrefix(a.name.ns, a.name.prefix, true), a.name.local)
	}
	el.CreateAttr(key, a.value)
}

// removeElement detaches el from parent together with the indentation that
// precedes it.
func removeElement(parent, el *etree.Element) {
	if i := el.Index(); i > 0 {
		if cd, ok := parent.Child[i-1].(*etree.CharData); ok && isBlank(cd.Data) {
			parent.RemoveChild(cd)
		}
	}
	parent.RemoveChild(el)
}

// childIndent returns the whitespace preceding the first child element of el.
func childIndent(el *etree.Element) string {
	for i, t := range el.Child {
		if _, ok := t.(*etree.Element); !ok {
			continue
		}
		if i == 0 {
			return ""
		}
		if cd, ok := el.Child[i-1].(*etree.CharData); ok && isBlank(cd.Data) {
			return cd.Data
		}
		return ""
	}
	return ""
}

// isEPub3 reports whether version names ePub 3 or later.
func isEPub3(version string) bool {
	major, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	n, err := strconv.Atoi(major)
	return err == nil && n >= 3
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
