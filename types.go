package epubedit

import "time"

// Metadata holds the descriptive metadata of one EPUB package document.
//
// A Metadata returned by Load is detached from the archive: changing it has
// no effect until it is passed to Commit. Empty fields are left untouched by
// Commit; they never delete existing values.
type Metadata struct {
	// Version is the package version attribute (e.g., "2.0", "3.0").
	Version string

	// Title is the dc:title value.
	Title string

	// Authors contains every dc:creator value in document order.
	Authors []string

	// Publisher is the dc:publisher value.
	Publisher string

	// Rights is the dc:rights value.
	Rights string

	// Language is the dc:language value (BCP 47 tag, e.g., "en").
	Language string

	// Subjects contains every dc:subject value in document order.
	Subjects []string

	// PublishedDate is the dc:date not marked as a modification.
	PublishedDate string

	// ModifiedDate is the dcterms:modified meta or the dc:date whose
	// opf:event is "modification".
	ModifiedDate string

	// ISBN is the dc:identifier classified as an ISBN.
	ISBN string

	// ASIN is the dc:identifier classified as an Amazon ASIN.
	ASIN string

	// BookID is the text of the dc:identifier carrying an id attribute.
	// It is read-only.
	BookID string
}

// Clone returns a deep copy of m.
func (m *Metadata) Clone() Metadata {
	out := *m
	out.Authors = append([]string(nil), m.Authors...)
	out.Subjects = append([]string(nil), m.Subjects...)
	return out
}

// archiveEntry records the order and timestamp of one file entry so the
// repacked archive mirrors the source.
type archiveEntry struct {
	// Name is the ZIP-internal path.
	Name string

	// Modified is the entry's last modification time.
	Modified time.Time
}
