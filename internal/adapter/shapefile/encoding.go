package shapefile

import (
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// codePage picks the text encoding named in a .cpg file. dBASE files without
// one are read as Windows-1252, the desktop GIS default.
func codePage(cpg string) encoding.Encoding {
	switch strings.ToUpper(strings.TrimSpace(cpg)) {
	case "UTF-8", "UTF8", "65001":
		return nil
	case "ISO-8859-1", "ISO88591", "8859_1", "88591", "LATIN1":
		return charmap.ISO8859_1
	case "437", "CP437", "IBM437":
		return charmap.CodePage437
	case "850", "CP850", "IBM850":
		return charmap.CodePage850
	}
	return charmap.Windows1252
}

// decoderFor returns the text decoder for the shapefile at shpPath.
func decoderFor(shpPath string) func(string) string {
	cpg := ""
	base := strings.TrimSuffix(shpPath, shpPath[len(shpPath)-len(Ext):])
	for _, ext := range []string{".cpg", ".CPG"} {
		if data, err := os.ReadFile(base + ext); err == nil {
			cpg = string(data)
			break
		}
	}
	return textDecoder(codePage(cpg))
}

// textDecoder decodes legacy single-byte text. Valid UTF-8 passes through, so
// ASCII-only files read the same under any code page.
func textDecoder(enc encoding.Encoding) func(string) string {
	return func(s string) string {
		if enc == nil || utf8.ValidString(s) {
			return s
		}
		out, err := enc.NewDecoder().String(s)
		if err != nil {
			return s
		}
		return out
	}
}
