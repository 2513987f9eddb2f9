// Package controller contains the HTTP middleware and helper handlers used
// by the ops listener.
//
// Provided:
//   - WithLogger: injects a request-scoped logger and request ID into the
//     context and writes a structured access log.
//   - PprofMux: net/http/pprof handlers for mounting under a debug path.
package controller
