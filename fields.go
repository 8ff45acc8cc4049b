package epubedit

import "fmt"

// Field names a metadata field by its external name.
type Field string

// Recognized fields. Names are case-sensitive.
const (
	FieldEPubVersion     Field = "epub_version"
	FieldBookName        Field = "book_name"
	FieldAuthorName      Field = "author_name"
	FieldPublisherName   Field = "publisher_name"
	FieldISBN            Field = "ISBN"
	FieldASIN            Field = "ASIN"
	FieldBookID          Field = "bookid"
	FieldDescribe        Field = "describe"
	FieldLanguage        Field = "language"
	FieldRights          Field = "rights"
	FieldPublicationDate Field = "publication_date"
	FieldModifiedDate    Field = "modified_date"
)

// fieldAccessor reads and writes one Metadata field as a list of values.
type fieldAccessor struct {
	multi    bool
	readOnly bool
	get      func(*Metadata) []string
	set      func(*Metadata, []string)
}

// fieldOrder is the order Fields reports.
var fieldOrder = []Field{
	FieldEPubVersion,
	FieldBookName,
	FieldAuthorName,
	FieldPublisherName,
	FieldISBN,
	FieldASIN,
	FieldBookID,
	FieldDescribe,
	FieldLanguage,
	FieldRights,
	FieldPublicationDate,
	FieldModifiedDate,
}

var fieldRegistry = map[Field]fieldAccessor{
	FieldEPubVersion:     single(func(m *Metadata) *string { return &m.Version }),
	FieldBookName:        single(func(m *Metadata) *string { return &m.Title }),
	FieldAuthorName:      multi(func(m *Metadata) *[]string { return &m.Authors }),
	FieldPublisherName:   single(func(m *Metadata) *string { return &m.Publisher }),
	FieldISBN:            single(func(m *Metadata) *string { return &m.ISBN }),
	FieldASIN:            single(func(m *Metadata) *string { return &m.ASIN }),
	FieldBookID:          readOnly(single(func(m *Metadata) *string { return &m.BookID })),
	FieldDescribe:        multi(func(m *Metadata) *[]string { return &m.Subjects }),
	FieldLanguage:        single(func(m *Metadata) *string { return &m.Language }),
	FieldRights:          single(func(m *Metadata) *string { return &m.Rights }),
	FieldPublicationDate: single(func(m *Metadata) *string { return &m.PublishedDate }),
	FieldModifiedDate:    single(func(m *Metadata) *string { return &m.ModifiedDate }),
}

func single(ref func(*Metadata) *string) fieldAccessor {
	return fieldAccessor{
		get: func(m *Metadata) []string {
			if v := *ref(m); v != "" {
				return []string{v}
			}
			return nil
		},
		set: func(m *Metadata, values []string) {
			v := ""
			if len(values) == 1 {
				v = values[0]
			}
			*ref(m) = v
		},
	}
}

func multi(ref func(*Metadata) *[]string) fieldAccessor {
	return fieldAccessor{
		multi: true,
		get: func(m *Metadata) []string {
			return append([]string(nil), *ref(m)...)
		},
		set: func(m *Metadata, values []string) {
			*ref(m) = append([]string(nil), values...)
		},
	}
}

func readOnly(a fieldAccessor) fieldAccessor {
	a.readOnly = true
	return a
}

// Fields returns every recognized field in a stable order.
func Fields() []Field {
	return append([]Field(nil), fieldOrder...)
}

// ParseField validates name against the recognized set.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := fieldRegistry[f]; !ok {
		return "", fmt.Errorf("epub: %q: %w", name, ErrUnknownField)
	}
	return f, nil
}

// IsMulti reports whether f holds a list of values.
func (f Field) IsMulti() bool {
	return fieldRegistry[f].multi
}

// IsReadOnly reports whether Set refuses f.
func (f Field) IsReadOnly() bool {
	return fieldRegistry[f].readOnly
}

func lookupField(f Field) (fieldAccessor, error) {
	a, ok := fieldRegistry[f]
	if !ok {
		return fieldAccessor{}, fmt.Errorf("epub: %q: %w", string(f), ErrUnknownField)
	}
	return a, nil
}

// Get returns the values of f. An empty single-valued field yields nil.
func (m *Metadata) Get(f Field) ([]string, error) {
	a, err := lookupField(f)
	if err != nil {
		return nil, err
	}
	return a.get(m), nil
}

// Set replaces the values of f. A single-valued field takes at most one
// value; passing none clears it, which Commit treats as "leave unchanged".
func (m *Metadata) Set(f Field, values ...string) error {
	a, err := lookupField(f)
	if err != nil {
		return err
	}
	if a.readOnly {
		return fmt.Errorf("epub: %s: %w", f, ErrReadOnlyField)
	}
	if !a.multi && len(values) > 1 {
		return fmt.Errorf("epub: %s takes one value, got %d: %w", f, len(values), ErrInvalidValue)
	}
	a.set(m, values)
	return nil
}

// Selected returns the requested fields that have a value. Fields that are
// empty are omitted from the result.
func (m *Metadata) Selected(fields ...Field) (map[Field][]string, error) {
	out := make(map[Field][]string, len(fields))
	for _, f := range fields {
		values, err := m.Get(f)
		if err != nil {
			return nil, err
		}
		if len(values) > 0 {
			out[f] = values
		}
	}
	return out, nil
}

// All returns every recognized field, including empty ones.
func (m *Metadata) All() map[Field][]string {
	out := make(map[Field][]string, len(fieldOrder))
	for _, f := range fieldOrder {
		out[f] = fieldRegistry[f].get(m)
	}
	return out
}
