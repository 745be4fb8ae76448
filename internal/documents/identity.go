package documents

import (
	"path"
	"regexp"
	"strings"
	"time"
)

var idPattern = regexp.MustCompile(`^(\d{8})-(\d+)$`)

// ValidID reports whether id has the date+sequence form YYYYMMDD-NNN with a real date.
func ValidID(id string) bool {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return false
	}
	_, err := time.Parse("20060102", m[1])
	return err == nil
}

// IDDate returns the origin date encoded in a valid id.
func IDDate(id string) (time.Time, bool) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", m[1])
	return t, err == nil
}

// ParseID derives a document id from a file name of the form <id>.<ext> or
// <id>_<slug>.<ext>. Directory components are ignored.
func ParseID(name string) (string, bool) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))

	id, _, _ := strings.Cut(base, "_")
	if !ValidID(id) {
		return "", false
	}
	return id, true
}
