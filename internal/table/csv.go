package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	return hasExt(filename, ".csv", ".tsv", ".txt")
}

func (csvLoader) Load(path string, opt LoadOptions) ([]*Table, error) {
	t, err := ReadCSV(path, opt)
	if err != nil {
		return nil, err
	}
	return []*Table{t}, nil
}

// ReadCSV reads a delimited text file into a Table named after the file.
func ReadCSV(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	defer f.Close()

	dec, err := decoderFor(opt.Encoding)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	var src io.Reader = f
	if dec != nil {
		src = transform.NewReader(f, dec.NewDecoder())
	}
	br := bufio.NewReader(src)
	if err := skipBOM(br); err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, br)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim

	name := filepath.Base(path)
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Name: name}, nil
		}
		return nil, &LoadError{Path: path, Cause: fmt.Errorf("read header: %w", err)}
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &LoadError{Path: path, Cause: fmt.Errorf("read row %d: %w", len(records)+1, err)}
		}
		if blankRecord(rec) {
			continue
		}
		records = append(records, rec)
	}
	return FromRecords(name, header, records, opt.Number), nil
}

func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1254", "cp1254", "win1254":
		return charmap.Windows1254, nil
	case "iso-8859-9", "latin5":
		return charmap.ISO8859_9, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q (use utf-8|windows-1254|iso-8859-9|windows-1252)", name)
	}
}

func skipBOM(br *bufio.Reader) error {
	b, err := br.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return err
	}
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	return nil
}

// sniffDelimiter uses the extension first, then counts candidates in the
// header line.
func sniffDelimiter(path string, br *bufio.Reader) rune {
	if hasExt(path, ".tsv") {
		return '\t'
	}
	peek, _ := br.Peek(4096)
	line := string(peek)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', 0
	for _, c := range []rune{',', ';', '\t'} {
		if n := strings.Count(line, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
