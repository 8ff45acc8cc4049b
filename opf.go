package epubedit

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// XML namespaces used by OCF containers and OPF package documents.
const (
	nsOPF       = "http://www.idpf.org/2007/opf"
	nsDC        = "http://purl.org/dc/elements/1.1/"
	nsContainer = "urn:oasis:names:tc:opendocument:xmlns:container"
	nsXML       = "http://www.w3.org/XML/1998/namespace"
)

// utf8Declaration replaces whatever declaration the source carried; the
// serialized document is always UTF-8.
const utf8Declaration = `version="1.0" encoding="UTF-8"`

// xml11Declaration matches an XML 1.1 version pseudo-attribute in the
// declaration. encoding/xml only accepts 1.0, and ePub metadata written as
// 1.1 uses nothing 1.0 cannot express.
var xml11Declaration = regexp.MustCompile(`^(<\?xml[^>]*?version\s*=\s*["'])1\.1(["'])`)

// packageDocument is a parsed OPF package document kept as a mutable tree,
// so untouched markup survives a rewrite.
type packageDocument struct {
	doc      *etree.Document
	root     *etree.Element
	metadata *etree.Element // nil when the package has no metadata section
}

// parsePackage parses raw package document bytes.
func parsePackage(data []byte) (*packageDocument, error) {
	data = stripBOM(data)
	data = xml11Declaration.ReplaceAll(data, []byte("${1}1.0${2}"))
	data = preprocessHTMLEntities(data)

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: parse package document: %w", ErrMalformedXML, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("epub: package document has no root element: %w", ErrMalformedXML)
	}

	p := &packageDocument{doc: doc, root: root}
	for _, child := range root.ChildElements() {
		if child.Tag == "metadata" && isPackageNamespace(elementNamespace(child)) {
			p.metadata = child
			break
		}
	}
	return p, nil
}

// version returns the unqualified version attribute of the package element.
func (p *packageDocument) version() (string, bool) {
	return attrValue(p.root, "", "version")
}

// setVersion sets the package element's version attribute.
func (p *packageDocument) setVersion(v string) {
	for i := range p.root.Attr {
		if a := &p.root.Attr[i]; a.Space == "" && a.Key == "version" {
			a.Value = v
			return
		}
	}
	p.root.CreateAttr("version", v)
}

// ensureMetadata returns the metadata section, creating an empty one in the
// package element's namespace if the document has none.
func (p *packageDocument) ensureMetadata() *etree.Element {
	if p.metadata == nil {
		p.metadata = p.root.CreateElement(qualify(p.root.Space, "metadata"))
	}
	return p.metadata
}

// scope is the element namespace lookups for new metadata children start from.
func (p *packageDocument) scope() *etree.Element {
	if p.metadata != nil {
		return p.metadata
	}
	return p.root
}

// prefixFor returns the prefix bound to ns in the metadata scope, preferring
// the default namespace. When named is set, the default namespace does not
// count; attributes need a prefix.
func (p *packageDocument) prefixFor(ns string, named bool) (string, bool) {
	scope := p.scope()
	if !named && lookupNamespace(scope, "") == ns {
		return "", true
	}
	for e := scope; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Space == "xmlns" && a.Value == ns && lookupNamespace(scope, a.Key) == ns {
				return a.Key, true
			}
		}
	}
	return "", false
}

// ensurePrefix returns a prefix bound to ns, declaring preferred (or a
// numbered variant of it, if taken) on the metadata element when needed.
func (p *packageDocument) ensurePrefix(ns, preferred string, named bool) string {
	if prefix, ok := p.prefixFor(ns, named); ok {
		return prefix
	}
	md := p.ensureMetadata()
	prefix := preferred
	for i := 1; lookupNamespace(md, prefix) != ""; i++ {
		prefix = preferred + strconv.Itoa(i)
	}
	md.CreateAttr("xmlns:"+prefix, ns)
	return prefix
}

// bytes serializes the document as UTF-8 with an XML declaration.
func (p *packageDocument) bytes() ([]byte, error) {
	hasDecl := false
	for _, t := range p.doc.Child {
		if pi, ok := t.(*etree.ProcInst); ok && pi.Target == "xml" {
			pi.Inst = utf8Declaration
			hasDecl = true
		}
	}

	var buf bytes.Buffer
	if !hasDecl {
		buf.WriteString(xml.Header)
	}
	if _, err := p.doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("%w: serialize package document: %w", ErrIO, err)
	}
	return buf.Bytes(), nil
}

// isPackageNamespace reports whether ns is acceptable for OPF structural
// elements. Unqualified documents are tolerated.
func isPackageNamespace(ns string) bool {
	return ns == nsOPF || ns == ""
}

// lookupNamespace resolves prefix ("" for the default namespace) in the
// scope of el.
func lookupNamespace(el *etree.Element, prefix string) string {
	switch prefix {
	case "xml":
		return nsXML
	case "xmlns":
		return ""
	}
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if prefix == "" && a.Space == "" && a.Key == "xmlns" {
				return a.Value
			}
			if prefix != "" && a.Space == "xmlns" && a.Key == prefix {
				return a.Value
			}
		}
	}
	return ""
}

// elementNamespace returns the namespace URI of el.
func elementNamespace(el *etree.Element) string {
	return lookupNamespace(el, el.Space)
}

// isElement reports whether el is the element {ns}local.
func isElement(el *etree.Element, ns, local string) bool {
	return el.Tag == local && elementNamespace(el) == ns
}

// attrValue returns the value of the attribute {ns}local on el. An empty ns
// selects the unprefixed attribute.
func attrValue(el *etree.Element, ns, local string) (string, bool) {
	for _, a := range el.Attr {
		if a.Key != local {
			continue
		}
		if ns == "" {
			if a.Space == "" {
				return a.Value, true
			}
			continue
		}
		if a.Space != "" && a.Space != "xmlns" && lookupNamespace(el, a.Space) == ns {
			return a.Value, true
		}
	}
	return "", false
}

// opfAttr returns an OPF attribute such as opf:scheme or opf:event, falling
// back to the unprefixed form some packages use.
func opfAttr(el *etree.Element, local string) string {
	if v, ok := attrValue(el, nsOPF, local); ok {
		return strings.TrimSpace(v)
	}
	v, _ := attrValue(el, "", local)
	return strings.TrimSpace(v)
}

// elementText returns the trimmed leading text of el.
func elementText(el *etree.Element) string {
	return strings.TrimSpace(el.Text())
}

// qualify joins prefix and local into a tag or attribute key.
func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
