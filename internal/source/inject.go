package source

import "strings"

// InjectCSS inserts css as a <style> block before </head>, after <body>,
// or at the start of the document, whichever is found first.
func InjectCSS(doc, css string) string {
	if css == "" {
		return doc
	}
	block := "<style>" + strings.ReplaceAll(css, "</", `<\/`) + "</style>"
	lower := strings.ToLower(doc)

	if idx := strings.Index(lower, "</head>"); idx != -1 {
		return doc[:idx] + block + doc[idx:]
	}
	if idx := strings.Index(lower, "<body"); idx != -1 {
		if end := strings.Index(doc[idx:], ">"); end != -1 {
			pos := idx + end + 1
			return doc[:pos] + block + doc[pos:]
		}
	}
	return block + doc
}
