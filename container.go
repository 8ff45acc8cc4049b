package epubedit

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// containerXML models the META-INF/container.xml file used to locate the OPF.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

// rootFile represents a single <rootfile> element inside container.xml.
type rootFile struct {
	XMLName   xml.Name
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// containerPath is the well-known location of container.xml in an ePub archive.
const containerPath = "META-INF/container.xml"

// packageMediaType is the media type of an OPF package document.
const packageMediaType = "application/oebps-package+xml"

// fallbackPackagePaths are probed, in priority order, when container.xml is
// missing or names an entry the archive does not contain.
var fallbackPackagePaths = []string{
	"OEBPS/content.opf",
	"content.opf",
	"EPUB/package.opf",
}

// locatePackage returns the ZIP entry holding the package document.
//
// It first follows META-INF/container.xml (case-insensitive lookup). If the
// descriptor is missing, or the path it names is absent from the archive,
// the fixed fallback paths are tried. Returns a wrapped ErrPackageNotFound if
// neither yields an entry, or ErrMalformedXML if container.xml cannot be parsed.
func locatePackage(zr *zip.Reader, limit int64) (*zip.File, error) {
	if f := findFileInsensitive(zr, containerPath); f != nil {
		opfPath, err := parseContainerXML(f, limit)
		if err != nil {
			return nil, err
		}
		if opf := findFileInsensitive(zr, opfPath); opf != nil {
			return opf, nil
		}
	}

	for _, candidate := range fallbackPackagePaths {
		if f := findFileInsensitive(zr, candidate); f != nil {
			return f, nil
		}
	}

	return nil, fmt.Errorf("epub: no package document in archive: %w", ErrPackageNotFound)
}

// parseContainerXML reads and decodes a container.xml ZIP entry, returning
// the full-path of the package rootfile. Rootfiles outside the container
// namespace are ignored; an unqualified rootfile is accepted.
func parseContainerXML(f *zip.File, limit int64) (string, error) {
	data, err := readZipFile(f, limit)
	if err != nil {
		return "", fmt.Errorf("epub: read container.xml: %w", err)
	}

	data = stripBOM(data)

	var c containerXML
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("%w: parse container.xml: %w", ErrMalformedXML, err)
	}

	var fallbackPath string
	for _, rf := range c.RootFiles {
		if rf.XMLName.Space != nsContainer && rf.XMLName.Space != "" {
			continue
		}
		fullPath := strings.TrimSpace(rf.FullPath)
		if fullPath == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), packageMediaType) {
			return fullPath, nil
		}
		if fallbackPath == "" {
			fallbackPath = fullPath
		}
	}

	return fallbackPath, nil
}
