package table

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported indicates a file format no registered loader accepts.
var ErrUnsupported = errors.New("unsupported table format")

// LoadError reports why a source could not be turned into a Table.
type LoadError struct {
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// LoadOptions controls how files are read.
type LoadOptions struct {
	// Delimiter for delimited text. If 0, sniffed from the extension and header.
	Delimiter rune
	// Encoding of delimited text: "utf-8" (default), "windows-1254", "iso-8859-9".
	Encoding string
	// SheetName forces a workbook sheet instead of the main (largest) one.
	SheetName string
	Number    NumberFormat
}

// Loader reads one family of file formats.
type Loader interface {
	CanLoad(filename string) bool
	// Load returns every sub-table of the source in source order.
	Load(path string, opt LoadOptions) ([]*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// Load reads the file at path and returns its main table. When the source
// holds several sub-tables the one with the most rows wins, ties going to the
// first in source order. A forced sheet name bypasses that choice.
func Load(path string, opt LoadOptions) (*Table, error) {
	tables, err := LoadAll(path, opt)
	if err != nil {
		return nil, err
	}
	if opt.SheetName != "" {
		for _, t := range tables {
			if t.Name == opt.SheetName {
				return t, nil
			}
		}
		return nil, &LoadError{Path: path, Cause: fmt.Errorf("sheet %q not found. Available sheets: %s", opt.SheetName, strings.Join(names(tables), ", "))}
	}
	return Main(tables), nil
}

// LoadAll reads every sub-table of the file at path.
func LoadAll(path string, opt LoadOptions) ([]*Table, error) {
	for _, l := range registry {
		if !l.CanLoad(path) {
			continue
		}
		tables, err := l.Load(path, opt)
		if err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				return nil, err
			}
			return nil, &LoadError{Path: path, Cause: err}
		}
		if len(tables) == 0 {
			return nil, &LoadError{Path: path, Cause: errors.New("no tables found")}
		}
		return tables, nil
	}
	return nil, &LoadError{Path: path, Cause: fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(path))}
}

// Main picks the table with the most rows; ties keep the earlier table.
func Main(tables []*Table) *Table {
	var best *Table
	for _, t := range tables {
		if best == nil || t.Rows() > best.Rows() {
			best = t
		}
	}
	return best
}

func names(tables []*Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}

func hasExt(name string, exts ...string) bool {
	lower := strings.ToLower(name)
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}
