package savefile

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"time"
)

// Metadata is the plaintext header of a save file. It can be read and
// rewritten without the password.
type Metadata struct {
	Name         string
	Description  string
	CreatedAt    time.Time
	LastOpenedAt time.Time
}

const (
	keyName         = "name"
	keyDescription  = "description"
	keyCreatedAt    = "created_at"
	keyLastOpenedAt = "last_opened_at"
)

// encodeMetadata renders m as "key=value\n" lines with timestamps in Unix
// seconds. Backslashes and newlines in values are escaped.
func encodeMetadata(m Metadata) []byte {
	var b bytes.Buffer
	writePair := func(k, v string) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(escapeValue(v))
		b.WriteByte('\n')
	}
	writePair(keyName, m.Name)
	writePair(keyDescription, m.Description)
	writePair(keyCreatedAt, strconv.FormatInt(m.CreatedAt.Unix(), 10))
	writePair(keyLastOpenedAt, strconv.FormatInt(m.LastOpenedAt.Unix(), 10))
	return b.Bytes()
}

// parseMetadata decodes a metadata section. Unknown keys and lines without '='
// are ignored. Missing or unparsable values fall back to defaultName, an empty
// description and now.
func parseMetadata(data []byte, defaultName string, now time.Time) Metadata {
	m := Metadata{
		Name:         defaultName,
		CreatedAt:    now,
		LastOpenedAt: now,
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 4096), len(data)+1)
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		v = unescapeValue(v)
		switch k {
		case keyName:
			m.Name = v
		case keyDescription:
			m.Description = v
		case keyCreatedAt:
			if t, ok := parseUnix(v); ok {
				m.CreatedAt = t
			}
		case keyLastOpenedAt:
			if t, ok := parseUnix(v); ok {
				m.LastOpenedAt = t
			}
		}
	}
	return m
}

func parseUnix(v string) (time.Time, bool) {
	sec, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func escapeValue(v string) string {
	return valueEscaper.Replace(v)
}

func unescapeValue(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' || i == len(v)-1 {
			b.WriteByte(v[i])
			continue
		}
		switch v[i+1] {
		case 'n':
			b.WriteByte('\n')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte('\\')
		}
	}
	return b.String()
}
