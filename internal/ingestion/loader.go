package ingestion

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/narchambault/autopulse/internal/domain/models"
)

// LoadError wraps any failure to produce a RawTable from the input file:
// missing file, undecodable bytes, or text that is not parseable as a
// delimited table.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Options controls how the input file is read.
//
// Fields:
//   - Encoding: "latin1"/"iso-8859-1", "windows-1252", "utf8"/"" accepted.
//   - Delimiter: field separator; 0 means auto-detect between ',' and ';'
//     by counting occurrences in the header line.
type Options struct {
	Encoding  string
	Delimiter rune
}

// LoadFile reads a delimited listings file into a RawTable.
//
// Behavior:
//   - Decodes the configured text encoding while reading.
//   - The first record is the header; it must be non-empty.
//   - Rows are read with FieldsPerRecord = -1: ragged rows are NOT an error
//     here, the Cleaner drops and counts them. Only unrecoverable read
//     errors fail the load.
//   - The file handle is closed on every exit path.
//
// Returns:
//   - *models.RawTable: header plus all data rows, raw strings.
//   - error: a *LoadError wrapping the cause.
func LoadFile(ctx context.Context, path string, opts Options) (*models.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	dec, err := decoderFor(opts.Encoding)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var src io.Reader = f
	if dec != nil {
		src = transform.NewReader(f, dec)
	}

	br := bufio.NewReader(src)
	delim := opts.Delimiter
	if delim == 0 {
		delim, err = sniffDelimiter(br)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	}

	r := csv.NewReader(br)
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1 // ragged rows are the Cleaner's problem

	header, err := r.Read()
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) == 0 || (len(header) == 1 && header[0] == "") {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("empty header row")}
	}

	table := &models.RawTable{Columns: header}
	line := 1 // header already read

	for {
		select {
		case <-ctx.Done():
			return nil, &LoadError{Path: path, Err: ctx.Err()}
		default:
		}

		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, &LoadError{Path: path, Err: fmt.Errorf("read line after %d: %w", line, err)}
		}
		line++
		table.Rows = append(table.Rows, rec)
	}

	return table, nil
}

// decoderFor maps an encoding name to a charset decoder. A nil decoder means
// the input is used as-is (UTF-8).
func decoderFor(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf8", "utf-8":
		return nil, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// sniffDelimiter inspects the buffered start of the file and picks ';' when
// the first line carries more semicolons than commas, ',' otherwise. The
// buffer is only peeked, never consumed.
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	peek, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, fmt.Errorf("sniff delimiter: %w", err)
	}
	if len(peek) == 0 {
		return 0, fmt.Errorf("sniff delimiter: empty file")
	}
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';', nil
	}
	return ',', nil
}
