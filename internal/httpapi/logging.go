package httpapi

import (
	"bytes"
	"log"

	"github.com/gin-gonic/gin"
)

// statusRecorder keeps the status and the first maxLogBytes of the body so
// failed requests can be logged with their error payload.
type statusRecorder struct {
	gin.ResponseWriter
	statusCode   int
	maxLogBytes  int
	bytesWritten int
	logBody      bytes.Buffer
	truncated    bool
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.bytesWritten += n

	if remaining := r.maxLogBytes - r.logBody.Len(); remaining > 0 {
		if len(p) > remaining {
			r.logBody.Write(p[:remaining])
			r.truncated = true
		} else {
			r.logBody.Write(p)
		}
	} else if len(p) > 0 {
		r.truncated = true
	}
	return n, err
}

func (r *statusRecorder) WriteString(s string) (int, error) {
	return r.Write([]byte(s))
}

func logFailures(maxLogBytes int) gin.HandlerFunc {
	return func(c *gin.Context) {
		recorder := &statusRecorder{
			ResponseWriter: c.Writer,
			statusCode:     200,
			maxLogBytes:    maxLogBytes,
		}
		c.Writer = recorder
		c.Next()

		if recorder.statusCode < 400 {
			return
		}
		level := "[WARN]"
		if recorder.statusCode >= 500 {
			level = "[ERROR]"
		}
		suffix := ""
		if recorder.truncated {
			suffix = "..."
		}
		log.Printf("%s %s %s -> %d user=%q body=%s%s",
			level, c.Request.Method, c.Request.URL.Path, recorder.statusCode,
			currentUser(c), bytes.TrimSpace(recorder.logBody.Bytes()), suffix)
	}
}
