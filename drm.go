package epubedit

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// encryptionFilePath is the standard path for the encryption descriptor.
const encryptionFilePath = "META-INF/encryption.xml"

// rightsDescriptors are META-INF entries whose mere presence means the
// archive is locked to a DRM scheme.
var rightsDescriptors = []struct {
	path   string
	scheme string
}{
	{"META-INF/sinf.xml", "Apple FairPlay"},
	{"META-INF/rights.xml", "Adobe ADEPT"},
	{"META-INF/license.lcpl", "Readium LCP"},
}

// Font obfuscation algorithm URIs. These do not constitute DRM.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true, // IDPF font obfuscation
	"http://ns.adobe.com/pdf/enc#RC":     true, // Adobe font obfuscation
}

type xmlEncryption struct {
	XMLName       xml.Name           `xml:"encryption"`
	EncryptedData []xmlEncryptedData `xml:"EncryptedData"`
}

type xmlEncryptedData struct {
	EncryptionMethod struct {
		Algorithm string `xml:"Algorithm,attr"`
	} `xml:"EncryptionMethod"`
	CipherReference struct {
		URI string `xml:"URI,attr"`
	} `xml:"CipherData>CipherReference"`
}

// inspectEncryption refuses archives under DRM and returns the resources
// that are only font-obfuscated. Those are carried through a commit
// byte for byte; the obfuscation key is the package's unique identifier,
// which Commit never rewrites.
//
// An encryption descriptor that cannot be parsed counts as DRM.
func inspectEncryption(zr *zip.Reader, limit int64) (obfuscated []string, err error) {
	for _, d := range rightsDescriptors {
		if findFileInsensitive(zr, d.path) != nil {
			return nil, fmt.Errorf("epub: %s descriptor %s present: %w", d.scheme, d.path, ErrDRMProtected)
		}
	}

	f := findFileInsensitive(zr, encryptionFilePath)
	if f == nil {
		return nil, nil
	}
	data, err := readZipFile(f, limit)
	if err != nil {
		return nil, err
	}

	var enc xmlEncryption
	if err := xml.Unmarshal(stripBOM(data), &enc); err != nil {
		return nil, fmt.Errorf("epub: unreadable %s: %w", f.Name, ErrDRMProtected)
	}

	for _, ed := range enc.EncryptedData {
		alg := strings.TrimSpace(ed.EncryptionMethod.Algorithm)
		uri := strings.TrimSpace(ed.CipherReference.URI)
		if !fontObfuscationAlgorithms[alg] {
			return nil, fmt.Errorf("epub: %q encrypted with %q: %w", uri, alg, ErrDRMProtected)
		}
		obfuscated = append(obfuscated, uri)
	}
	return obfuscated, nil
}
