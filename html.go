package epubedit

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// xmlEntities are the entity names XML predefines; they are left alone.
var xmlEntities = map[string]bool{
	"amp": true, "lt": true, "gt": true, "quot": true, "apos": true,
}

// namedEntityPattern matches a named character reference such as &eacute;.
var namedEntityPattern = regexp.MustCompile(`&([A-Za-z][A-Za-z0-9]*);`)

// preprocessHTMLEntities replaces HTML named entities with their numeric
// character references so that the XML parser accepts package documents
// written with HTML habits. Names unknown to HTML are left untouched and
// still fail parsing.
func preprocessHTMLEntities(data []byte) []byte {
	if !namedEntityPattern.Match(data) {
		return data
	}
	return namedEntityPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := string(match[1 : len(match)-1])
		if xmlEntities[name] {
			return match
		}
		decoded := html.UnescapeString(string(match))
		if decoded == string(match) {
			return match
		}
		// Legacy entities such as &copy are also recognised without a
		// semicolon, so an unknown &copyright; decodes to "©right;". Only a
		// name consumed up to its semicolon is a real entity.
		if strings.HasSuffix(decoded, ";") && name != "semi" {
			return match
		}
		out := make([]byte, 0, 8*len(decoded))
		for _, r := range decoded {
			out = append(out, "&#"...)
			out = strconv.AppendInt(out, int64(r), 10)
			out = append(out, ';')
		}
		return out
	})
}
