package blob

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Slugify reduces a file base name to lowercase ascii letters, digits and
// single dashes.
func Slugify(base string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(base) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			sb.WriteRune(r)
			dash = false
		default:
			if !dash && sb.Len() > 0 {
				sb.WriteByte('-')
				dash = true
			}
		}
	}

	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		slug = "file"
	}

	return slug
}

// UniqueName allocates a collision-free file name in a bucket by
// slugifying the original base name and appending the first free numeric
// suffix: name.png, name_1.png, name_2.png, ...
func UniqueName(ctx context.Context, b Bucket, original string) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	base := Slugify(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))

	name := base + ext
	for i := 1; ; i++ {
		ok, err := b.Exists(ctx, name)
		if err != nil {
			return "", err
		}
		if !ok {
			return name, nil
		}

		name = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

// TimestampName allocates an editor-image file name prefixed with the
// upload time, keeping names unique without an existence scan.
func TimestampName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := Slugify(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))

	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), base, ext)
}
