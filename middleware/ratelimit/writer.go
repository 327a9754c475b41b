package ratelimit

import (
	"bufio"
	"net"
	"net/http"
)

// headerWriter aplica os headers de rate limit no momento em que o handler
// seguinte compromete a resposta (primeiro WriteHeader, Write ou Flush).
type headerWriter struct {
	http.ResponseWriter
	decorate func(http.Header)
	done     bool
}

func (w *headerWriter) commit() {
	if w.done {
		return
	}
	w.done = true
	w.decorate(w.ResponseWriter.Header())
}

func (w *headerWriter) WriteHeader(code int) {
	// 1xx informativos não fecham os headers finais
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *headerWriter) Flush() {
	w.commit()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap permite http.ResponseController alcançar o writer original.
func (w *headerWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Hijack atende quem faz type assertion direta em http.Hijacker (websocket).
func (w *headerWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	w.commit()
	return hj.Hijack()
}
