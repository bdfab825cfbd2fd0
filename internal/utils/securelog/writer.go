package securelog

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
)

// Writer is a zerolog output hook. Each JSON line written to it is decoded,
// redacted and re-encoded before reaching the underlying sink, so events built
// with the plain zerolog API are covered as well. Lines that are not JSON are
// scrubbed as text.
type Writer struct {
	mu       sync.Mutex
	out      io.Writer
	redactor *Redactor
}

// NewWriter wraps out. A nil redactor selects the default one.
func NewWriter(out io.Writer, redactor *Redactor) *Writer {
	if redactor == nil {
		redactor = defaultRedactor
	}
	return &Writer{out: out, redactor: redactor}
}

// Write implements io.Writer. It always reports len(p) on success so that
// zerolog does not treat re-encoding size differences as short writes.
func (w *Writer) Write(p []byte) (int, error) {
	line := w.redactLine(p)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(line); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *Writer) redactLine(p []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(p))
	dec.UseNumber()

	var entry map[string]any
	if err := dec.Decode(&entry); err != nil {
		return []byte(w.redactor.SanitizeString(string(p)))
	}

	// The message is a plain string value and is scrubbed like any other field.
	clean := w.redactor.SanitizeFields(entry)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(clean); err != nil {
		return []byte(w.redactor.SanitizeString(string(p)))
	}
	return buf.Bytes()
}
