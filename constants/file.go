package constants

import (
	"path"
	"strings"
)

// DocumentExt is the only source document extension the pipeline accepts.
const DocumentExt = "pdf"

// JSONContentType is used for every record written to the processed bucket.
const JSONContentType = "application/json"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsDocumentKey reports whether an object key or path names a source document.
func IsDocumentKey(key string) bool {
	return NormalizeExt(path.Ext(key)) == DocumentExt
}

// DocumentBaseName returns the last path element of key with a ".pdf" or
// ".PDF" suffix removed.
func DocumentBaseName(key string) string {
	base := path.Base(strings.ReplaceAll(key, "\\", "/"))
	base = strings.ReplaceAll(base, ".pdf", "")
	return strings.ReplaceAll(base, ".PDF", "")
}
