package epubedit

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// defaultMaxEntrySize is the maximum allowed decompressed size for a single ZIP entry.
// This guards against zip bomb attacks. Defaults to 256 MB.
const defaultMaxEntrySize int64 = 256 * 1024 * 1024

// mimetypeName is the entry that must come first, uncompressed, in an ePub.
const mimetypeName = "mimetype"

// findFileInsensitive looks up a ZIP entry by path, first trying an exact match,
// then falling back to a case-insensitive comparison.
// Returns nil if no match is found.
func findFileInsensitive(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	lower := strings.ToLower(name)
	for _, f := range zr.File {
		if strings.ToLower(f.Name) == lower {
			return f
		}
	}
	return nil
}

// isSafePath checks whether p is a safe ZIP-internal path that does not
// escape the archive root via path traversal (e.g., "../../../etc/passwd").
func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// readZipFile reads the full contents of a ZIP entry, enforcing limit and
// rejecting unsafe entry paths.
func readZipFile(f *zip.File, limit int64) ([]byte, error) {
	if !isSafePath(f.Name) {
		return nil, fmt.Errorf("epub: unsafe zip entry path: %s: %w", f.Name, ErrArchive)
	}

	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("epub: zip entry %s too large: %d bytes (max %d): %w", f.Name, f.UncompressedSize64, limit, ErrArchive)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open zip entry %s: %w", ErrArchive, f.Name, err)
	}
	defer rc.Close()

	// Read up to limit+1 to detect if the actual decompressed data
	// exceeds the limit (the declared size might be wrong/forged).
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read zip entry %s: %w", ErrArchive, f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("epub: zip entry %s decompressed size exceeds limit (%d bytes): %w", f.Name, limit, ErrArchive)
	}

	return data, nil
}

// extractArchive writes every file entry of zr below dir and returns the
// entries in archive order. Directory entries are skipped; a repeated name
// keeps its first position and the last content.
func extractArchive(zr *zip.Reader, dir string, limit int64) ([]archiveEntry, error) {
	entries := make([]archiveEntry, 0, len(zr.File))
	seen := make(map[string]bool, len(zr.File))

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if !isSafePath(f.Name) {
			return nil, fmt.Errorf("epub: unsafe zip entry path: %s: %w", f.Name, ErrArchive)
		}
		if err := extractEntry(f, dir, limit); err != nil {
			return nil, err
		}
		name := path.Clean(f.Name)
		if !seen[name] {
			seen[name] = true
			entries = append(entries, archiveEntry{Name: name, Modified: f.Modified})
		}
	}

	return entries, nil
}

// extractEntry copies one ZIP entry to its path below dir.
func extractEntry(f *zip.File, dir string, limit int64) error {
	if f.UncompressedSize64 > uint64(limit) {
		return fmt.Errorf("epub: zip entry %s too large: %d bytes (max %d): %w", f.Name, f.UncompressedSize64, limit, ErrArchive)
	}

	target := filepath.Join(dir, filepath.FromSlash(path.Clean(f.Name)))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: create directory for %s: %w", ErrIO, f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open zip entry %s: %w", ErrArchive, f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, f.Name, err)
	}

	n, err := io.Copy(out, io.LimitReader(rc, limit+1))
	if cerr := out.Close(); err == nil && cerr != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, f.Name, cerr)
	}
	if err != nil {
		return fmt.Errorf("%w: extract %s: %w", ErrArchive, f.Name, err)
	}
	if n > limit {
		return fmt.Errorf("epub: zip entry %s decompressed size exceeds limit (%d bytes): %w", f.Name, limit, ErrArchive)
	}
	return nil
}

// writeArchive zips every regular file below dir into w. The mimetype entry
// goes first and is stored uncompressed; the remaining files follow the
// order of entries, then any file not listed there, by name. All other
// files are deflated.
func writeArchive(w io.Writer, dir string, entries []archiveEntry) error {
	names, err := listFiles(dir)
	if err != nil {
		return err
	}

	order := make(map[string]int, len(entries))
	modified := make(map[string]archiveEntry, len(entries))
	for i, e := range entries {
		order[e.Name] = i
		modified[e.Name] = e
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if (a == mimetypeName) != (b == mimetypeName) {
			return a == mimetypeName
		}
		ia, okA := order[a]
		ib, okB := order[b]
		switch {
		case okA && okB:
			return ia < ib
		case okA != okB:
			return okA
		default:
			return a < b
		}
	})

	zw := zip.NewWriter(w)
	for _, name := range names {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if name == mimetypeName {
			hdr.Method = zip.Store
		}
		if e, ok := modified[name]; ok && !e.Modified.IsZero() {
			hdr.Modified = e.Modified
		}
		if err := addFile(zw, hdr, filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finish archive: %w", ErrIO, err)
	}
	return nil
}

// addFile copies the file at src into zw under hdr.
func addFile(zw *zip.Writer, hdr *zip.FileHeader, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, hdr.Name, err)
	}
	defer f.Close()

	if hdr.Modified.IsZero() {
		if info, err := f.Stat(); err == nil {
			hdr.Modified = info.ModTime()
		}
	}

	fw, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("%w: add %s: %w", ErrIO, hdr.Name, err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, hdr.Name, err)
	}
	return nil
}

// listFiles returns the slash-separated paths of all regular files below dir.
func listFiles(dir string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk scratch directory: %w", ErrIO, err)
	}
	return names, nil
}
