package epubedit

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/charmbracelet/log"
)

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// testOPFv2 is an ePub 2 package document with one creator and no rights.
const testOPFv2 = `<?xml version="1.0" encoding="UTF-8"?>
<package version="2.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Sample Book</dc:title>
    <dc:creator opf:role="aut">Jane Doe</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">urn:uuid:1b4e28ba-2fa1-11d2-883f-0016d3cca427</dc:identifier>
    <dc:publisher>Sample Press</dc:publisher>
    <dc:date opf:event="publication">2020-05-01</dc:date>
    <dc:subject>Fiction</dc:subject>
  </metadata>
  <manifest>
    <item id="chap1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chap1"/>
  </spine>
</package>`

const testChapterXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>One</title></head><body><p>Hello.</p></body></html>`

// testEPubFiles returns the entries of a small ePub 2 book whose package
// document is opf.
func testEPubFiles(opf string) map[string]string {
	return map[string]string{
		"mimetype":               expectedMimetype,
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      opf,
		"OEBPS/chapter1.xhtml":   testChapterXHTML,
		"OEBPS/style.css":        "body { margin: 0; }\n",
	}
}

// buildTestZip creates an in-memory ZIP archive from the provided files map
// (path → content) and returns a *zip.Reader over the resulting bytes.
// It calls t.Fatal on any error.
func buildTestZip(t *testing.T, files map[string]string) *zip.Reader {
	t.Helper()
	data := buildTestZipBytes(t, files)
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildTestZip: open reader: %v", err)
	}
	return r
}

// buildTestZipBytes encodes files as a ZIP archive. A "mimetype" entry is
// written first and stored; the rest follow in name order, deflated.
func buildTestZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		if name != mimetypeName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := files[mimetypeName]; ok {
		names = append([]string{mimetypeName}, names...)
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, name := range names {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if name == mimetypeName {
			hdr.Method = zip.Store
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("buildTestZip: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			t.Fatalf("buildTestZip: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestZip: close writer: %v", err)
	}
	return buf.Bytes()
}

// buildTestEPubFile writes an ePub (ZIP) archive to a temporary file and
// returns the file path.
func buildTestEPubFile(t *testing.T, files map[string]string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buildTestZipBytes(t, files), 0o644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

// readTestArchive returns every file entry of the archive at path, keyed by
// name, and the entry names in archive order.
func readTestArchive(t *testing.T, path string) (map[string][]byte, []string) {
	t.Helper()
	zrc, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("readTestArchive: open %s: %v", path, err)
	}
	defer zrc.Close()

	contents := make(map[string][]byte, len(zrc.File))
	order := make([]string, 0, len(zrc.File))
	for _, f := range zrc.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("readTestArchive: open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("readTestArchive: read entry %s: %v", f.Name, err)
		}
		contents[f.Name] = data
		order = append(order, f.Name)
	}
	return contents, order
}

// newTestEditor returns an Editor whose scratch directories live in a
// per-test directory and whose log output is discarded.
func newTestEditor(t *testing.T) (*Editor, string) {
	t.Helper()
	scratch := t.TempDir()
	return NewEditor(WithScratchDir(scratch), WithLogger(discardLogger())), scratch
}

func discardLogger() *log.Logger {
	return logTo(io.Discard)
}

func logTo(w io.Writer) *log.Logger {
	return log.New(w)
}
