package lsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
)

// maxMessage bounds a single payload.
const maxMessage = 64 << 20

// readMessage reads one payload framed by a Content-Length header. The
// header block has MIME syntax, so textproto parses it; other headers
// such as Content-Type are ignored.
func readMessage(r *bufio.Reader) ([]byte, error) {
	hdr, err := textproto.NewReader(r).ReadMIMEHeader()
	if err != nil {
		if errors.Is(err, io.EOF) && len(hdr) == 0 {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	raw := hdr.Get("Content-Length")
	if raw == "" {
		return nil, errors.New("missing Content-Length header")
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil || n < 0:
		return nil, fmt.Errorf("invalid Content-Length %q", raw)
	case n > maxMessage:
		return nil, fmt.Errorf("message of %d bytes exceeds the limit", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func writeMessage(w io.Writer, payload []byte) error {
	frame := make([]byte, 0, len(payload)+32)
	frame = append(frame, "Content-Length: "...)
	frame = strconv.AppendInt(frame, int64(len(payload)), 10)
	frame = append(frame, "\r\n\r\n"...)
	_, err := w.Write(append(frame, payload...))
	return err
}
