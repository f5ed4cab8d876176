package archive

import "strings"

// NormalizeName converts an asset name to the slash-separated form used for
// lookups.
//
// It performs the following transformations:
//   - Converts backslashes to slashes: `Images\Foo.png` → "Images/Foo.png"
//   - Strips leading and trailing slashes: "/a/b/" → "a/b"
//   - Collapses consecutive slashes: "a//b" → "a/b"
//   - Converts empty string to root: "" → "."
//
// Case is preserved; use [Key] for the case-insensitive map key. "." and
// ".." elements are preserved so callers can reject them with fs.ValidPath.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.Trim(name, "/")
	if name == "" {
		return "."
	}

	parts := strings.Split(name, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return "."
	}
	return strings.Join(result, "/")
}

// Key returns the case-insensitive lookup key for name.
func Key(name string) string {
	return strings.ToLower(NormalizeName(name))
}
