package transport

import (
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	filenamePlain  = regexp.MustCompile(`\bfilename=([^,;]+)`)
	filenameQuoted = regexp.MustCompile(`\bfilename="([^"\\]+)"`)
	filenameUTF8   = regexp.MustCompile(`\bfilename\*=UTF-8''([^,;]+)`)
)

func isAttachment(disposition string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(disposition)), "attachment")
}

// Filename extracts the suggested download name from a Content-Disposition
// header. The patterns are tried in order and the last one that matches
// wins, so an RFC 5987 name overrides a quoted one, which overrides a bare one.
func Filename(disposition string) string {
	var name string
	if m := filenamePlain.FindStringSubmatch(disposition); m != nil {
		name = strings.TrimSpace(m[1])
	}
	if m := filenameQuoted.FindStringSubmatch(disposition); m != nil {
		name = m[1]
	}
	if m := filenameUTF8.FindStringSubmatch(disposition); m != nil {
		if decoded, err := url.PathUnescape(strings.TrimSpace(m[1])); err == nil {
			name = decoded
		}
	}
	return safeName(name)
}

// safeName keeps only the final path element of a server supplied name.
func safeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	switch name {
	case ".", "/", "..":
		return ""
	}
	return name
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
