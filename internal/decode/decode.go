// Package decode reads a delimited text file into a table.Table.
//
// Decoding is a two-step negotiation: the raw bytes are first decoded with the
// primary text encoding (UTF-8 by default); if and only if that fails with an
// encoding error, they are decoded once more with a fallback single-byte
// encoding (ISO-8859-1 by default). CSV structure problems never trigger the
// fallback. The first record is the header row.
package decode

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"csvload/internal/datasource"
	"csvload/internal/datasource/file"
	"csvload/internal/table"
)

const (
	// DefaultEncoding is tried first.
	DefaultEncoding = "UTF-8"
	// DefaultFallbackEncoding is tried when the primary decode fails.
	DefaultFallbackEncoding = "ISO-8859-1"
)

// DefaultNullTokens are cell values treated as missing. The set matches the
// NA markers recognised by common dataframe CSV readers, so exports produced
// by those tools round-trip as NULL instead of literal "NaN"/"None" strings.
var DefaultNullTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a",
	"nan", "null",
}

// Options configures File. Zero values select the defaults.
type Options struct {
	// Encoding is the IANA name of the primary text encoding.
	Encoding string
	// FallbackEncoding is the IANA name tried once when Encoding fails.
	FallbackEncoding string
	// Comma is the field delimiter; ',' when zero.
	Comma rune
	// TrimSpace trims surrounding whitespace from every cell before the
	// missing-value check.
	TrimSpace bool
	// NullTokens overrides DefaultNullTokens when non-nil. The empty string is
	// always treated as missing.
	NullTokens []string
}

func (o Options) withDefaults() Options {
	if o.Encoding == "" {
		o.Encoding = DefaultEncoding
	}
	if o.FallbackEncoding == "" {
		o.FallbackEncoding = DefaultFallbackEncoding
	}
	if o.Comma == 0 {
		o.Comma = ','
	}
	if o.NullTokens == nil {
		o.NullTokens = DefaultNullTokens
	}
	return o
}

// Error reports that neither the primary nor the fallback encoding could
// decode the file.
type Error struct {
	Path        string
	Primary     string
	PrimaryErr  error
	Fallback    string
	FallbackErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("decode %s: %s: %v; fallback %s: %v",
		e.Path, e.Primary, e.PrimaryErr, e.Fallback, e.FallbackErr)
}

// Unwrap exposes both causes to errors.Is/As.
func (e *Error) Unwrap() []error { return []error{e.PrimaryErr, e.FallbackErr} }

// File reads the file at path and returns the decoded Table.
func File(ctx context.Context, path string, opt Options) (*table.Table, error) {
	return Read(ctx, file.NewLocal(path), path, opt)
}

// Read drains src and decodes it. The reader is closed before Read returns;
// name is only used in errors and logs.
func Read(ctx context.Context, src datasource.Source, name string, opt Options) (*table.Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return Bytes(raw, name, opt)
}

// Bytes decodes raw file content. name is only used in errors and logs.
func Bytes(raw []byte, name string, opt Options) (*table.Table, error) {
	opt = opt.withDefaults()

	text, used, err := decodeText(raw, opt.Encoding)
	if err != nil {
		primaryErr := err
		log.Printf("decode: %s: %s failed (%v), retrying with %s", name, opt.Encoding, err, opt.FallbackEncoding)
		text, used, err = decodeText(raw, opt.FallbackEncoding)
		if err != nil {
			return nil, &Error{
				Path:        name,
				Primary:     opt.Encoding,
				PrimaryErr:  primaryErr,
				Fallback:    opt.FallbackEncoding,
				FallbackErr: err,
			}
		}
	}

	t, err := parse(text, opt)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	t.Encoding = used
	t.Fingerprint = xxh3.Hash(raw)
	return t, nil
}

// decodeText converts raw bytes in the named encoding to UTF-8 and strips a
// leading byte order mark. It returns the encoding name that was used.
func decodeText(raw []byte, name string) ([]byte, string, error) {
	if isUTF8(name) {
		if _, _, err := transform.Bytes(encoding.UTF8Validator, raw); err != nil {
			return nil, "", err
		}
		return bytes.TrimPrefix(raw, []byte(utf8BOM)), DefaultEncoding, nil
	}

	enc, err := lookup(name)
	if err != nil {
		return nil, "", err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, "", err
	}
	return bytes.TrimPrefix(out, []byte(utf8BOM)), name, nil
}

const utf8BOM = "\uFEFF"

// CheckEncoding reports whether name is an encoding File can decode.
func CheckEncoding(name string) error {
	if isUTF8(name) {
		return nil
	}
	_, err := lookup(name)
	return err
}

func lookup(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q: not supported", name)
	}
	return enc, nil
}

func isUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

// parse splits decoded text into header and rows.
//
// Short rows are padded with missing cells. Rows wider than the header are
// skipped and counted, since there is no column to hold the extra fields.
func parse(text []byte, opt Options) (*table.Table, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = opt.Comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := uniqueHeaders(header)

	nulls := make(map[string]struct{}, len(opt.NullTokens)+1)
	nulls[""] = struct{}{}
	for _, tok := range opt.NullTokens {
		nulls[tok] = struct{}{}
	}

	var (
		rows    []table.Row
		skipped int
	)
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record near line %d: %w", line, err)
		}
		if len(rec) > len(columns) {
			if skipped < maxSkipLogs {
				log.Printf("decode: skipping line %d: %d fields, header has %d", line, len(rec), len(columns))
			}
			skipped++
			continue
		}

		row := make(table.Row, len(columns))
		for i := range row {
			if i >= len(rec) {
				row[i] = table.Null()
				continue
			}
			v := rec[i]
			if opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if _, isNull := nulls[v]; isNull {
				row[i] = table.Null()
				continue
			}
			row[i] = table.Text(v)
		}
		rows = append(rows, row)
	}

	t, err := table.New(columns, rows)
	if err != nil {
		return nil, err
	}
	t.Skipped = skipped
	return t, nil
}

const maxSkipLogs = 100

// uniqueHeaders trims header names, names blank ones "Unnamed: <i>", and
// mangles duplicates as name, name.1, name.2 so every column is addressable.
func uniqueHeaders(h []string) []string {
	out := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, name := range h {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for {
			if _, dup := seen[name]; !dup {
				break
			}
			seen[base]++
			name = fmt.Sprintf("%s.%d", base, seen[base])
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}
