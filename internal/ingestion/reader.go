package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// Recognized column names. Matching is case-insensitive on trimmed names.
const (
	ColCustomer    = "Client"
	ColOrder       = "Pedido"
	ColDelivery    = "Entrega"
	ColAmount      = "Importe Total"
	ColProduct     = "C.Prd"
	ColQuantity    = "Cant"
	ColDisplayName = "Razon social"
	ColStatus      = "Sts"
)

// Record is one table row with every recognized column as a trimmed string.
// Columns missing from the report read as empty.
type Record struct {
	Line        int
	CustomerID  string
	OrderID     string
	Delivery    string
	Amount      string
	ProductCode string
	Quantity    string
	DisplayName string
	Status      string
}

var columns = []struct {
	name string
	set  func(*Record, string)
}{
	{ColCustomer, func(r *Record, v string) { r.CustomerID = v }},
	{ColOrder, func(r *Record, v string) { r.OrderID = v }},
	{ColDelivery, func(r *Record, v string) { r.Delivery = v }},
	{ColAmount, func(r *Record, v string) { r.Amount = v }},
	{ColProduct, func(r *Record, v string) { r.ProductCode = v }},
	{ColQuantity, func(r *Record, v string) { r.Quantity = v }},
	{ColDisplayName, func(r *Record, v string) { r.DisplayName = v }},
	{ColStatus, func(r *Record, v string) { r.Status = v }},
}

type Options struct {
	Sniffer Sniffer
	Logger  *zap.Logger
}

// Reader yields the records of a report lazily, one table row per call.
type Reader struct {
	csv       *csv.Reader
	sniff     Sniff
	header    []string
	index     []int
	missing   []string
	malformed int
}

// Decode converts report bytes to text as Latin-1. Every byte maps to a
// code point, so decoding cannot fail on real input.
func Decode(data []byte) (string, error) {
	b, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode latin1: %w", err)
	}
	return string(b), nil
}

// NewReader decodes data, locates the header row and prepares the table
// reader. It fails with ErrHeaderNotFound when the report has no header.
func NewReader(data []byte, opts Options) (*Reader, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Sniffer == nil {
		return nil, errors.New("ingestion: no sniffer configured")
	}

	text, err := Decode(data)
	if err != nil {
		return nil, err
	}
	text = normalizeNewlines(text)

	sn, err := opts.Sniffer.Sniff(text)
	if err != nil {
		return nil, fmt.Errorf("sniff report: %w", err)
	}
	table := text[sn.Offset:]

	cr, header, err := openTable(table, sn.Delimiter)
	if err != nil {
		return nil, err
	}
	if len(header) <= 2 {
		if alt, ok := alternate(sn.Delimiter); ok {
			logger.Info("header split into too few columns, retrying delimiter",
				zap.String("from", string(sn.Delimiter)),
				zap.String("to", string(alt)),
				zap.Int("columns", len(header)))
			sn.Delimiter = alt
			if cr, header, err = openTable(table, alt); err != nil {
				return nil, err
			}
		}
	}

	r := &Reader{csv: cr, sniff: sn, header: header}
	r.bindColumns()

	logger.Debug("report header located",
		zap.Int("line", sn.HeaderLine),
		zap.String("delimiter", string(sn.Delimiter)),
		zap.Int("columns", len(header)))
	if len(r.missing) > 0 {
		logger.Warn("report is missing recognized columns", zap.Strings("columns", r.missing))
	}
	return r, nil
}

// normalizeNewlines turns CRLF and bare CR line endings into LF so that old
// Mac-style exports split into lines like any other report.
func normalizeNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)
}

func openTable(table string, delim rune) (*csv.Reader, []string, error) {
	cr := csv.NewReader(strings.NewReader(table))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = Trim(header[i])
	}
	return cr, header, nil
}

func (r *Reader) bindColumns() {
	pos := make(map[string]int, len(r.header))
	for i, name := range r.header {
		pos[strings.ToLower(name)] = i
	}
	r.index = make([]int, len(columns))
	for c, col := range columns {
		i, ok := pos[strings.ToLower(col.name)]
		if !ok {
			i = -1
			r.missing = append(r.missing, col.name)
		}
		r.index[c] = i
	}
}

// Next returns the next record, or io.EOF once the table is exhausted. Rows
// the CSV layer cannot split are skipped and counted in Malformed.
func (r *Reader) Next() (Record, error) {
	for {
		fields, err := r.csv.Read()
		if err == io.EOF {
			return Record{}, io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				r.malformed++
				continue
			}
			return Record{}, fmt.Errorf("read record: %w", err)
		}

		// Line is 1-based within the whole report.
		ln, _ := r.csv.FieldPos(0)
		rec := Record{Line: r.sniff.HeaderLine + ln}
		for c, col := range columns {
			if i := r.index[c]; i >= 0 && i < len(fields) {
				col.set(&rec, Trim(fields[i]))
			}
		}
		return rec, nil
	}
}

func (r *Reader) Header() []string         { return r.header }
func (r *Reader) Delimiter() rune          { return r.sniff.Delimiter }
func (r *Reader) HeaderLine() int          { return r.sniff.HeaderLine }
func (r *Reader) MissingColumns() []string { return r.missing }
func (r *Reader) Malformed() int           { return r.malformed }
