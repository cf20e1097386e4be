package recording

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidName = errors.New("invalid recording filename")
	ErrNotFound    = errors.New("recording not found")
)

var namePattern = regexp.MustCompile(`(?i)^door-(\d+)-to-(\d+)\.(webm|mp3|wav|ogg)$`)

var mimeTypes = map[string]string{
	"webm": "audio/webm",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
}

// Name identifies a recording sent from one door to another. It is encoded in
// the file name as door-<from>-to-<to>.<ext>.
type Name struct {
	From      int64
	To        int64
	Extension string
}

func ParseName(filename string) (Name, error) {
	m := namePattern.FindStringSubmatch(strings.TrimSpace(filename))
	if m == nil {
		return Name{}, ErrInvalidName
	}

	from, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Name{}, ErrInvalidName
	}

	to, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Name{}, ErrInvalidName
	}

	return Name{From: from, To: to, Extension: strings.ToLower(m[3])}, nil
}

func (n Name) String() string {
	return fmt.Sprintf("door-%d-to-%d.%s", n.From, n.To, n.Extension)
}

// ContentType maps a file name to the MIME type it is served with.
func ContentType(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}

	return "application/octet-stream"
}

type Recording struct {
	Filename  string  `json:"filename"`
	From      int64   `json:"from"`
	To        int64   `json:"to"`
	Extension string  `json:"extension"`
	Size      *int64  `json:"size"`
	CreatedAt *string `json:"createdAt"`
	UpdatedAt *string `json:"updatedAt"`
	URL       string  `json:"url"`
	FromName  string  `json:"fromName"`
}
