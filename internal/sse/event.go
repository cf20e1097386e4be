package sse

import (
	"bytes"
	"fmt"
	"io"
)

// writeEvent writes data as one SSE event. Multi-line payloads are split over
// several data fields so the client reassembles them unchanged.
func writeEvent(w io.Writer, data []byte) error {
	var buf bytes.Buffer

	for _, line := range bytes.Split(data, []byte("\n")) {
		fmt.Fprintf(&buf, "data: %s\n", line)
	}
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}
