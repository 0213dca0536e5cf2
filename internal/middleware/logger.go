package middleware

import (
	"log"
	"time"

	"workforce/backend/foundation/web"
)

// Logger writes one line per request with its trace id, status and latency.
func Logger(log *log.Logger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(c *web.Context) error {
			v := c.GetValues()

			log.Printf("%s : started   : %s %s -> %s", v.TraceID, c.Request.Method, c.Request.URL.Path, c.ClientIP())

			err := handler(c)

			log.Printf("%s : completed : %s %s -> %s (%d) (%s)",
				v.TraceID, c.Request.Method, c.Request.URL.Path, c.ClientIP(), v.StatusCode, time.Since(v.Now))

			return err
		}

		return h
	}

	return m
}
