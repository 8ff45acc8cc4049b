package epubedit

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/beevik/etree"
)

// patched applies md to opf and returns the serialized result and what
// extractMetadata reads back from it.
func patched(t *testing.T, opf string, md Metadata) (string, Metadata) {
	t.Helper()
	p := mustParsePackage(t, opf)
	applyMetadata(p, md)
	out, err := p.bytes()
	if err != nil {
		t.Fatalf("bytes() error = %v", err)
	}
	return string(out), mustExtract(t, string(out))
}

// children returns the metadata children named {ns}local in out.
func children(t *testing.T, out, ns, local string) []*etree.Element {
	t.Helper()
	p := mustParsePackage(t, out)
	var els []*etree.Element
	for _, el := range p.metadata.ChildElements() {
		if isElement(el, ns, local) {
			els = append(els, el)
		}
	}
	return els
}

func TestApplyMetadata_RoundTrip(t *testing.T) {
	for _, opf := range []string{testOPFv2, testMetadataOPFv2, testMetadataOPFv3} {
		before := mustExtract(t, opf)
		_, after := patched(t, opf, before)
		if !reflect.DeepEqual(before, after) {
			t.Errorf("round trip changed metadata:\n got %+v\nwant %+v", after, before)
		}
	}
}

func TestApplyMetadata_EmptyRecordIsNoOp(t *testing.T) {
	p := mustParsePackage(t, testMetadataOPFv3)
	want, err := p.bytes()
	if err != nil {
		t.Fatal(err)
	}
	applyMetadata(p, Metadata{BookID: "ignored"})
	got, err := p.bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("empty record changed the document:\n%s", got)
	}
}

func TestApplyMetadata_SingleFieldUpdate(t *testing.T) {
	before := mustExtract(t, testOPFv2)
	out, after := patched(t, testOPFv2, Metadata{Title: "New Title"})

	if after.Title != "New Title" {
		t.Errorf("Title = %q, want %q", after.Title, "New Title")
	}
	before.Title = "New Title"
	if !reflect.DeepEqual(after, before) {
		t.Errorf("other fields changed:\n got %+v\nwant %+v", after, before)
	}
	if n := len(children(t, out, nsDC, "title")); n != 1 {
		t.Errorf("title elements = %d, want 1", n)
	}
}

func TestApplyMetadata_UpdatesLastMatch(t *testing.T) {
	opf := wrapMetadata("2.0", `<dc:publisher>First</dc:publisher><dc:publisher>Second</dc:publisher>`)
	out, md := patched(t, opf, Metadata{Publisher: "Third"})

	if md.Publisher != "Third" {
		t.Errorf("Publisher = %q, want %q", md.Publisher, "Third")
	}
	els := children(t, out, nsDC, "publisher")
	if len(els) != 2 || elementText(els[0]) != "First" {
		t.Errorf("publishers = %d, first = %q; want 2, %q", len(els), elementText(els[0]), "First")
	}
}

func TestApplyMetadata_CreatesMissing(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package version="2.0" xmlns="http://www.idpf.org/2007/opf">
  <metadata>
  </metadata>
</package>`

	out, md := patched(t, opf, Metadata{
		Title:     "Fresh",
		Publisher: "Pub",
		Rights:    "All rights reserved",
		Language:  "fr",
	})

	if md.Title != "Fresh" || md.Publisher != "Pub" || md.Rights != "All rights reserved" || md.Language != "fr" {
		t.Errorf("read back %+v", md)
	}
	if !strings.Contains(out, `xmlns:dc="http://purl.org/dc/elements/1.1/"`) {
		t.Errorf("dc namespace not declared:\n%s", out)
	}
}

func TestApplyMetadata_CreatesMetadataSection(t *testing.T) {
	opf := `<package version="3.0" xmlns="http://www.idpf.org/2007/opf"><manifest/></package>`
	_, md := patched(t, opf, Metadata{Title: "Made", Authors: []string{"A"}})

	if md.Title != "Made" || !reflect.DeepEqual(md.Authors, []string{"A"}) {
		t.Errorf("read back %+v", md)
	}
}

func TestApplyMetadata_ReplaceMultiValued(t *testing.T) {
	out, md := patched(t, testMetadataOPFv2, Metadata{
		Authors:  []string{"Ann", "Bob", "Ann"},
		Subjects: []string{"History"},
	})

	if want := []string{"Ann", "Bob", "Ann"}; !reflect.DeepEqual(md.Authors, want) {
		t.Errorf("Authors = %v, want %v", md.Authors, want)
	}
	if want := []string{"History"}; !reflect.DeepEqual(md.Subjects, want) {
		t.Errorf("Subjects = %v, want %v", md.Subjects, want)
	}
	for _, el := range children(t, out, nsDC, "creator") {
		if len(el.Attr) != 0 {
			t.Errorf("new creator %q has attributes %v", elementText(el), el.Attr)
		}
	}
	if strings.Contains(out, "file-as") {
		t.Error("old creator attributes survived the replacement")
	}
}

func TestApplyMetadata_KeepsIndentation(t *testing.T) {
	out, _ := patched(t, testOPFv2, Metadata{Authors: []string{"Jane Doe", "John Roe"}})

	want := "\n    <dc:creator>Jane Doe</dc:creator>\n    <dc:creator>John Roe</dc:creator>\n  </metadata>"
	if !strings.Contains(out, want) {
		t.Errorf("output does not contain %q:\n%s", want, out)
	}
}

func TestApplyMetadata_Identifiers(t *testing.T) {
	t.Run("update existing ISBN", func(t *testing.T) {
		out, md := patched(t, testMetadataOPFv2, Metadata{ISBN: "9780000000001"})
		if md.ISBN != "9780000000001" {
			t.Errorf("ISBN = %q, want %q", md.ISBN, "9780000000001")
		}
		if md.BookID != "urn:uuid:12345" {
			t.Errorf("BookID = %q, want unchanged", md.BookID)
		}
		if n := len(children(t, out, nsDC, "identifier")); n != 3 {
			t.Errorf("identifiers = %d, want 3", n)
		}
	})

	t.Run("update URN-classified ISBN", func(t *testing.T) {
		out, md := patched(t, testMetadataOPFv3, Metadata{ISBN: "urn:isbn:9781111111111"})
		if md.ISBN != "urn:isbn:9781111111111" {
			t.Errorf("ISBN = %q", md.ISBN)
		}
		if n := len(children(t, out, nsDC, "identifier")); n != 2 {
			t.Errorf("identifiers = %d, want 2", n)
		}
	})

	t.Run("update URN-classified ISBN with a bare value", func(t *testing.T) {
		out, md := patched(t, testMetadataOPFv3, Metadata{ISBN: "9781111111111"})
		if md.ISBN != "9781111111111" {
			t.Errorf("ISBN = %q, want %q", md.ISBN, "9781111111111")
		}
		ids := children(t, out, nsDC, "identifier")
		if len(ids) != 2 {
			t.Fatalf("identifiers = %d, want 2", len(ids))
		}
		if got := opfAttr(ids[1], "scheme"); got != schemeISBN {
			t.Errorf("updated identifier scheme = %q, want %q", got, schemeISBN)
		}
		if md.BookID != "urn:uuid:12345-67890" {
			t.Errorf("BookID = %q, want unchanged", md.BookID)
		}
	})

	t.Run("unique identifier that is an ISBN is left alone", func(t *testing.T) {
		opf := `<?xml version="1.0" encoding="UTF-8"?>
<package version="2.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>T</dc:title>
    <dc:identifier id="BookId" opf:scheme="ISBN">9780000000002</dc:identifier>
  </metadata>
</package>`
		out, md := patched(t, opf, Metadata{ISBN: "9789999999999"})
		if md.BookID != "9780000000002" {
			t.Errorf("BookID = %q, want %q", md.BookID, "9780000000002")
		}
		if md.ISBN != "9789999999999" {
			t.Errorf("ISBN = %q, want %q", md.ISBN, "9789999999999")
		}
		ids := children(t, out, nsDC, "identifier")
		if len(ids) != 2 {
			t.Fatalf("identifiers = %d, want 2", len(ids))
		}
		if ids[0].Text() != "9780000000002" {
			t.Errorf("unique identifier text = %q, want unchanged", ids[0].Text())
		}
		if _, ok := attrValue(ids[1], "", "id"); ok {
			t.Error("new ISBN identifier carries an id attribute")
		}
	})

	t.Run("create ASIN", func(t *testing.T) {
		out, md := patched(t, testOPFv2, Metadata{ASIN: "B0NEW"})
		if md.ASIN != "B0NEW" {
			t.Errorf("ASIN = %q, want %q", md.ASIN, "B0NEW")
		}
		if md.BookID != "urn:uuid:1b4e28ba-2fa1-11d2-883f-0016d3cca427" {
			t.Errorf("BookID = %q, want unchanged", md.BookID)
		}
		ids := children(t, out, nsDC, "identifier")
		created := ids[len(ids)-1]
		if got := opfAttr(created, "scheme"); got != schemeASIN {
			t.Errorf("new identifier scheme = %q, want %q", got, schemeASIN)
		}
		if _, ok := attrValue(created, "", "id"); ok {
			t.Error("new identifier carries an id attribute")
		}
	})

	t.Run("create ASIN in ePub 3 without opf binding", func(t *testing.T) {
		out, md := patched(t, testMetadataOPFv3, Metadata{ASIN: "B0THREE"})
		if md.ASIN != "B0THREE" {
			t.Errorf("ASIN = %q, want %q", md.ASIN, "B0THREE")
		}
		if !strings.Contains(out, `xmlns:opf="http://www.idpf.org/2007/opf"`) {
			t.Errorf("opf prefix not declared for the scheme attribute:\n%s", out)
		}
	})
}

func TestApplyMetadata_Dates(t *testing.T) {
	tests := []struct {
		name      string
		opf       string
		md        Metadata
		wantPub   string
		wantMod   string
		wantMarks []string
	}{
		{
			name:      "ePub 2 new dates",
			opf:       wrapMetadata("2.0", `<dc:title>T</dc:title>`),
			md:        Metadata{PublishedDate: "2010", ModifiedDate: "2011"},
			wantPub:   "2010",
			wantMod:   "2011",
			wantMarks: []string{`opf:event="publication">2010<`, `opf:event="modification">2011<`},
		},
		{
			name:      "ePub 3 new dates",
			opf:       wrapMetadata("3.0", `<dc:title>T</dc:title>`),
			md:        Metadata{PublishedDate: "2010", ModifiedDate: "2011-01-01T00:00:00Z"},
			wantPub:   "2010",
			wantMod:   "2011-01-01T00:00:00Z",
			wantMarks: []string{`<dc:date>2010</dc:date>`, `<meta property="dcterms:modified">2011-01-01T00:00:00Z</meta>`},
		},
		{
			name:    "ePub 3 existing modified meta",
			opf:     testMetadataOPFv3,
			md:      Metadata{ModifiedDate: "2025-01-01T00:00:00Z"},
			wantPub: "2024-06-01",
			wantMod: "2025-01-01T00:00:00Z",
		},
		{
			name:    "ePub 2 existing event dates",
			opf:     testMetadataOPFv2,
			md:      Metadata{PublishedDate: "1990", ModifiedDate: "1991"},
			wantPub: "1990",
			wantMod: "1991",
		},
		{
			name:      "modified date in ePub 2 leaves publication alone",
			opf:       testOPFv2,
			md:        Metadata{ModifiedDate: "2022-02-02"},
			wantPub:   "2020-05-01",
			wantMod:   "2022-02-02",
			wantMarks: []string{`opf:event="modification">2022-02-02<`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, md := patched(t, tt.opf, tt.md)
			if md.PublishedDate != tt.wantPub {
				t.Errorf("PublishedDate = %q, want %q", md.PublishedDate, tt.wantPub)
			}
			if md.ModifiedDate != tt.wantMod {
				t.Errorf("ModifiedDate = %q, want %q", md.ModifiedDate, tt.wantMod)
			}
			for _, mark := range tt.wantMarks {
				if !strings.Contains(out, mark) {
					t.Errorf("output missing %q:\n%s", mark, out)
				}
			}
		})
	}
}

func TestApplyMetadata_Version(t *testing.T) {
	_, md := patched(t, testOPFv2, Metadata{Version: "3.0"})
	if md.Version != "3.0" {
		t.Errorf("Version = %q, want %q", md.Version, "3.0")
	}
}

func TestIsEPub3(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"3.0", true},
		{"3.3", true},
		{" 3 ", true},
		{"2.0", false},
		{"2.0.1", false},
		{"1.0", false},
		{"", false},
		{"x", false},
	}
	for _, tt := range tests {
		if got := isEPub3(tt.version); got != tt.want {
			t.Errorf("isEPub3(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}
