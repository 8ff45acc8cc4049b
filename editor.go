package epubedit

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// expectedMimetype is the required content of the "mimetype" file in a valid ePub.
const expectedMimetype = "application/epub+zip"

// Editor reads and rewrites ePub package metadata. The zero value is not
// usable; create one with NewEditor. An Editor holds no per-archive state
// and is safe for concurrent use on distinct archives.
type Editor struct {
	logger       *log.Logger
	maxEntrySize int64
	scratchDir   string

	// destWriter wraps the destination file writer; tests use it to
	// inject write failures.
	destWriter func(io.Writer) io.Writer
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used for warnings and debug traces.
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxEntrySize sets the maximum decompressed size of a single archive
// entry. Non-positive values keep the default of 256 MB.
func WithMaxEntrySize(n int64) Option {
	return func(e *Editor) {
		if n > 0 {
			e.maxEntrySize = n
		}
	}
}

// WithScratchDir sets the parent directory for Commit's scratch copies.
// An empty dir selects os.TempDir.
func WithScratchDir(dir string) Option {
	return func(e *Editor) { e.scratchDir = dir }
}

// NewEditor returns an Editor configured by opts.
func NewEditor(opts ...Option) *Editor {
	e := &Editor{
		logger:       log.Default().WithPrefix("epubedit"),
		maxEntrySize: defaultMaxEntrySize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load reads the package metadata of the ePub at path with a default Editor.
func Load(path string) (Metadata, error) {
	return NewEditor().Load(path)
}

// Commit writes md into a copy of src at dst with a default Editor.
func Commit(src string, md Metadata, dst string) error {
	return NewEditor().Commit(src, md, dst)
}

// Load opens the ePub at path and returns its package metadata. The archive
// is never modified.
func (e *Editor) Load(path string) (Metadata, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: open %s: %w", ErrArchive, path, err)
	}
	defer zrc.Close()

	zr := &zrc.Reader
	if err := e.checkArchive(zr, path); err != nil {
		return Metadata{}, err
	}
	for _, w := range mimetypeWarnings(zr, e.maxEntrySize) {
		e.logger.Warn(w, "file", path)
	}

	opf, err := locatePackage(zr, e.maxEntrySize)
	if err != nil {
		return Metadata{}, err
	}
	e.logger.Debug("package document located", "file", path, "opf", opf.Name)

	data, err := readZipFile(opf, e.maxEntrySize)
	if err != nil {
		return Metadata{}, fmt.Errorf("epub: read package document: %w", err)
	}
	p, err := parsePackage(data)
	if err != nil {
		return Metadata{}, err
	}
	return extractMetadata(p)
}

// Commit writes the non-empty fields of md into the package document of
// src and repackages the archive at dst. An empty dst overwrites src.
//
// The archive is unpacked into a private scratch directory that is removed
// before Commit returns. The result is assembled in a temporary file next to
// dst and renamed into place only once complete, so a failure never leaves a
// partial destination behind and never touches src.
func (e *Editor) Commit(src string, md Metadata, dst string) error {
	if dst == "" {
		dst = src
	}

	zrc, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrArchive, src, err)
	}
	defer zrc.Close()

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrIO, src, err)
	}

	zr := &zrc.Reader
	if err := e.checkArchive(zr, src); err != nil {
		return err
	}
	opf, err := locatePackage(zr, e.maxEntrySize)
	if err != nil {
		return err
	}

	scratch, err := os.MkdirTemp(e.scratchDir, "epub_")
	if err != nil {
		return fmt.Errorf("%w: create scratch directory: %w", ErrIO, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			e.logger.Warn("scratch directory not removed", "dir", scratch, "err", err)
		}
	}()

	entries, err := extractArchive(zr, scratch, e.maxEntrySize)
	if err != nil {
		return err
	}
	if err := zrc.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrArchive, src, err)
	}
	e.logger.Debug("archive extracted", "file", src, "entries", len(entries), "opf", opf.Name)

	opfPath := filepath.Join(scratch, filepath.FromSlash(path.Clean(opf.Name)))
	data, err := os.ReadFile(opfPath)
	if err != nil {
		return fmt.Errorf("%w: read package document: %w", ErrIO, err)
	}
	p, err := parsePackage(data)
	if err != nil {
		return err
	}
	if v, ok := p.version(); !ok || v == "" {
		return fmt.Errorf("epub: package element has no version attribute: %w", ErrMalformedXML)
	}

	applyMetadata(p, md)

	out, err := p.bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(opfPath, out, 0o644); err != nil {
		return fmt.Errorf("%w: write package document: %w", ErrIO, err)
	}

	if err := e.writeDestination(dst, scratch, entries, info.Mode().Perm()); err != nil {
		return err
	}
	e.logger.Debug("archive written", "file", dst)
	return nil
}

// checkArchive refuses DRM-protected archives and reports font obfuscation.
func (e *Editor) checkArchive(zr *zip.Reader, name string) error {
	obfuscated, err := inspectEncryption(zr, e.maxEntrySize)
	if err != nil {
		return fmt.Errorf("epub: %s: %w", name, err)
	}
	if len(obfuscated) > 0 {
		e.logger.Warn("font obfuscation detected; obfuscated fonts are carried over unchanged",
			"file", name, "resources", len(obfuscated))
		e.logger.Debug("obfuscated resources", "file", name, "uris", obfuscated)
	}
	return nil
}

// writeDestination zips dir into a temporary file beside dst, then renames
// it over dst with permissions perm. The temporary file is removed on any
// failure.
func (e *Editor) writeDestination(dst, dir string, entries []archiveEntry, perm os.FileMode) (err error) {
	dstDir := filepath.Dir(dst)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("%w: create destination directory %s: %w", ErrArchive, dstDir, err)
	}

	tmp, err := os.CreateTemp(dstDir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temporary file: %w", ErrIO, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	var w io.Writer = tmp
	if e.destWriter != nil {
		w = e.destWriter(tmp)
	}
	if err = writeArchive(w, dir, entries); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrIO, tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("%w: rename to %s: %w", ErrIO, dst, err)
	}
	return nil
}

// mimetypeWarnings checks that the first ZIP entry is named "mimetype" and
// contains "application/epub+zip". Deviations are returned as warnings.
// Commit always writes the entry first and stored.
func mimetypeWarnings(zr *zip.Reader, limit int64) []string {
	if len(zr.File) == 0 {
		return []string{"empty ZIP archive; mimetype entry missing"}
	}

	first := zr.File[0]
	if first.Name != mimetypeName {
		return []string{`first ZIP entry is not "mimetype"`}
	}

	var warnings []string
	if first.Method != zip.Store {
		warnings = append(warnings, "mimetype entry is compressed")
	}
	data, err := readZipFile(first, limit)
	if err != nil {
		return append(warnings, fmt.Sprintf("cannot read mimetype entry: %v", err))
	}
	if string(data) != expectedMimetype {
		warnings = append(warnings, fmt.Sprintf("unexpected mimetype: %q", string(data)))
	}
	return warnings
}
