// Package responsewriter records the status and size of a response so the
// logging, metrics and tracing middleware can report them.
package responsewriter

import "net/http"

// ResponseWriter wraps http.ResponseWriter and remembers what was sent.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int64
	written bool
}

// Wrap returns w itself when it is already a *ResponseWriter, so stacked
// middleware share one recorder.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader forwards the first status only.
func (w *ResponseWriter) WriteHeader(status int) {
	if w.written {
		return
	}
	w.status = status
	w.written = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Flush sends buffered data to the client when the underlying writer can.
// Streaming handlers rely on it to push data through the wrapper.
func (w *ResponseWriter) Flush() {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

// StatusCode is the status sent, or 200 if nothing was sent yet.
func (w *ResponseWriter) StatusCode() int { return w.status }

// BytesWritten is the body size so far.
func (w *ResponseWriter) BytesWritten() int64 { return w.bytes }

// Written reports whether the header has gone out.
func (w *ResponseWriter) Written() bool { return w.written }

// Unwrap supports http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
