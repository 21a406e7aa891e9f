package ingestion

import (
	"errors"
	"strings"
)

// ErrHeaderNotFound is the only structural failure of a run: no line within
// the scan window starts with the header marker.
var ErrHeaderNotFound = errors.New("header not found")

// Sniff describes where the table starts inside a report and how it is
// delimited.
type Sniff struct {
	HeaderLine int
	Offset     int
	Delimiter  rune
}

// Sniffer locates the header row and the field delimiter of a decoded report.
type Sniffer interface {
	Sniff(text string) (Sniff, error)
}

// HeaderSniffer finds the first line whose trimmed content starts with
// Marker among the first ScanLines lines. Lines end at LF, CRLF or a bare CR.
type HeaderSniffer struct {
	Marker    string
	ScanLines int
}

func (h HeaderSniffer) Sniff(text string) (Sniff, error) {
	pos := 0
	for i := 0; i < h.ScanLines && pos < len(text); i++ {
		line := text[pos:]
		next := len(text)
		if nl := strings.IndexAny(line, "\r\n"); nl >= 0 {
			next = pos + nl + 1
			if line[nl] == '\r' && next < len(text) && text[next] == '\n' {
				next++
			}
			line = line[:nl]
		}
		if strings.HasPrefix(strings.TrimSpace(line), h.Marker) {
			return Sniff{HeaderLine: i, Offset: pos, Delimiter: DetectDelimiter(line)}, nil
		}
		pos = next
	}
	return Sniff{}, ErrHeaderNotFound
}

// DetectDelimiter picks the most frequent of comma, semicolon and tab in the
// header line. Comma wins a tie with semicolon; tab must beat both outright.
func DetectDelimiter(header string) rune {
	commas := strings.Count(header, ",")
	semis := strings.Count(header, ";")
	tabs := strings.Count(header, "\t")

	switch {
	case tabs > commas && tabs > semis:
		return '\t'
	case semis > commas:
		return ';'
	default:
		return ','
	}
}

// alternate is the fallback delimiter tried when the chosen one splits the
// header into too few columns. Tab has no alternate.
func alternate(d rune) (rune, bool) {
	switch d {
	case ',':
		return ';', true
	case ';':
		return ',', true
	}
	return 0, false
}
