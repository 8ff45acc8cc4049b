// Package epubedit reads and rewrites the descriptive metadata of ePub 2 and
// ePub 3 files.
//
// It locates the OPF package document through META-INF/container.xml, maps
// its Dublin Core and OPF elements onto a flat [Metadata] record, and writes
// changed fields back into the same XML tree while every other archive entry
// is carried over unchanged. DRM-protected files are detected and rejected
// with [ErrDRMProtected].
//
// # Reading metadata
//
// Use [Load] to read a file by path:
//
//	md, err := epubedit.Load("book.epub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(md.Title, md.Authors)
//
// # Writing metadata
//
// Change the record and pass it to [Commit]. Empty fields are left as they are
// in the source; Commit never deletes a value.
//
//	md.Rights = "CC-BY-4.0"
//	md.Authors = append(md.Authors, "John Roe")
//	if err := epubedit.Commit("book.epub", md, "book_out.epub"); err != nil {
//	    log.Fatal(err)
//	}
//
// An empty destination overwrites the source. The new archive is assembled
// in a temporary file and renamed into place, so a failed Commit leaves no
// partial output.
//
// # Fields by name
//
// Every field also has an external name (see [Fields]). [Metadata.Get],
// [Metadata.Set] and [Metadata.Selected] address fields by [Field]:
//
//	if err := md.Set(epubedit.FieldAuthorName, "Jane Doe", "John Roe"); err != nil {
//	    log.Fatal(err)
//	}
//	values, _ := md.Selected(epubedit.FieldBookName, epubedit.FieldISBN)
//
// # Configuration
//
// [NewEditor] returns an [Editor] with a custom logger, entry size limit or
// scratch directory. The package-level functions use the defaults.
//
// # Error Handling
//
// Every error wraps one of the package sentinels:
//   - [ErrArchive] – the input is not a readable ZIP archive
//   - [ErrPackageNotFound] – no package document could be located
//   - [ErrMalformedXML] – container.xml or the package document is invalid
//   - [ErrIO] – a filesystem operation failed
//   - [ErrDRMProtected] – the file is DRM encrypted
//   - [ErrUnknownField], [ErrReadOnlyField], [ErrInvalidValue] – field access errors
package epubedit
