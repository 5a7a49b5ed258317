package session

import (
	"net/http"
)

// Middleware loads the session before next runs and finalizes it before the
// first byte of the response is written, so the cookie can still be set. When
// next writes nothing, the session is finalized after it returns.
//
// Store failures are passed to the error handler (HTTP 500 by default) and the
// handler's own writes are dropped.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, err := m.Load(r.Context(), r)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}

		r = r.WithContext(withScope(r.Context(), &requestScope{state: state}))

		fw := &finalizingWriter{
			ResponseWriter: w,
			manager:        m,
			request:        r,
			state:          state,
		}

		next.ServeHTTP(fw, r)
		_ = fw.finalize()
	})
}

// finalizingWriter runs Finalize once, right before the response is committed.
type finalizingWriter struct {
	http.ResponseWriter
	manager *Manager
	request *http.Request
	state   *State
	done    bool
	err     error
}

func (fw *finalizingWriter) finalize() error {
	if fw.done {
		return fw.err
	}
	fw.done = true

	if _, err := fw.manager.Finalize(fw.request.Context(), fw.ResponseWriter, fw.state); err != nil {
		fw.err = err
		fw.manager.errorHandler(fw.ResponseWriter, fw.request, err)
	}
	return fw.err
}

func (fw *finalizingWriter) WriteHeader(code int) {
	if fw.finalize() != nil {
		return
	}
	fw.ResponseWriter.WriteHeader(code)
}

func (fw *finalizingWriter) Write(b []byte) (int, error) {
	if err := fw.finalize(); err != nil {
		return 0, err
	}
	return fw.ResponseWriter.Write(b)
}

func (fw *finalizingWriter) Flush() {
	if fw.finalize() != nil {
		return
	}
	if f, ok := fw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (fw *finalizingWriter) Unwrap() http.ResponseWriter {
	return fw.ResponseWriter
}
