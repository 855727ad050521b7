// Package textio holds helpers for ingesting delimited text data: encoding
// aware readers and the timestamp format used by the data files.
package textio

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// TimestampLayout is the row timestamp format, millisecond precision
const TimestampLayout = "2006-01-02 15:04:05.000"

// DateLayout is the day-granularity format used for slice start labels
const DateLayout = "2006-01-02"

// ParseTimestamp parses a row timestamp
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, strings.TrimSpace(s))
}

// DecodingReader wraps r so its contents are decoded from the named
// character encoding into UTF-8. Supported: utf-8, gbk, latin-1/iso-8859-1.
func DecodingReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "gbk":
		return transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()), nil
	case "latin-1", "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}
