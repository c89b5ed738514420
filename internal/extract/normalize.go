package extract

import "strings"

// URL prefixes recognized during reference normalization, checked in
// priority order. The admin form is a legacy serving route for editor
// images.
var urlPrefixes = []struct {
	prefix string
	bucket string
}{
	{prefix: "/storage/images/", bucket: "images/"},
	{prefix: "/storage/uploads/", bucket: "uploads/"},
	{prefix: "/admin/harmfulcontent/image/", bucket: "images/"},
	{prefix: "/storage/", bucket: ""},
}

// Normalize converts a referenced URL to its bucket-relative storage
// path, e.g. "/storage/images/a.png" -> "images/a.png". Paths already in
// storage-relative form pass through unchanged.
func Normalize(ref string) string {
	for _, p := range urlPrefixes {
		if rest, ok := strings.CutPrefix(ref, p.prefix); ok {
			return p.bucket + rest
		}
	}

	return ref
}

// NormalizeSet maps Normalize over a slice of references.
func NormalizeSet(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, Normalize(ref))
	}
	return out
}
