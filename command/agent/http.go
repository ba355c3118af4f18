package agent

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/dbops-engineering/autoscaler/autoscaler"
	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/logging"
	"github.com/dbops-engineering/autoscaler/version"
)

// HTTPServer is the server object which ultimately handles HTTP ingress
// endpoint calls made to the autoscaler.
type HTTPServer struct {
	mux      *http.ServeMux
	listener net.Listener
	scaler   *autoscaler.Scaler
	addr     string
}

// NewHTTPServer will setup the HTTP ingress endpoints and then start the
// server listening for calls.
func NewHTTPServer(config *structs.Config, scaler *autoscaler.Scaler) (*HTTPServer, error) {

	// Setup the bind and port for use.
	bind := fmt.Sprintf("%s:%s", config.BindAddress, config.HTTPPort)

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, fmt.Errorf("failed to start HTTP listener: %v", err)
	}

	mux := http.NewServeMux()

	srv := &HTTPServer{
		mux:      mux,
		listener: ln,
		scaler:   scaler,
		addr:     ln.Addr().String(),
	}
	srv.registerHandlers()

	go http.Serve(ln, gziphandler.GzipHandler(mux))

	logging.Info("command/agent: HTTP server successfully listening on %s", bind)

	return srv, nil
}

// Shutdown will shutdown the HTTP server.
func (s *HTTPServer) Shutdown() {
	if s != nil {
		logging.Info("command/agent: shutting down HTTP server at %s", s.addr)
		s.listener.Close()
	}
}

// registerHandlers is used to attach the HTTP ingress handlers to the mux.
func (s *HTTPServer) registerHandlers() {
	s.mux.HandleFunc("/v1/scale", s.wrap(s.ScaleRequest))
	s.mux.HandleFunc("/v1/envelope", s.wrap(s.EnvelopeRequest))
	s.mux.HandleFunc("/v1/health", s.wrap(s.HealthRequest))
}

// wrap is a helper which wraps the endpoint handlers with correct error,
// logging and response handling.
func (s *HTTPServer) wrap(handler func(resp http.ResponseWriter, req *http.Request) (interface{}, error)) func(resp http.ResponseWriter, req *http.Request) {
	f := func(resp http.ResponseWriter, req *http.Request) {
		reqURL := req.URL.String()

		// handleErr is used to handle errors from the endpoint handler in a
		// consistent manner.
		handleErr := func(err error) {
			logging.Error("command/agent: http: request %v %v failed: %v",
				req.Method, reqURL, err)
			code := 500
			if http, ok := err.(HTTPCodedError); ok {
				code = http.Code()
			}
			resp.WriteHeader(code)
			resp.Write([]byte(err.Error()))
		}

		obj, err := handler(resp, req)
		if err != nil {
			handleErr(err)
			return
		}

		if obj != nil {
			buf, err := json.Marshal(obj)
			if err != nil {
				handleErr(err)
				return
			}
			resp.Header().Set("Content-Type", "application/json")
			resp.Write(buf)
		}
	}

	return f
}

// ScaleRequest accepts a raw instance snapshot document posted to the
// agent and passes it through the scaling evaluation.
func (s *HTTPServer) ScaleRequest(resp http.ResponseWriter, req *http.Request) (interface{}, error) {
	if req.Method != http.MethodPost {
		return nil, CodedError(405, ErrInvalidMethod)
	}

	payload, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, CodedError(400, fmt.Sprintf("failed to read request body: %v", err))
	}

	if err := s.scaler.ScalePayload(req.Context(), payload); err != nil {
		return nil, CodedError(422, err.Error())
	}

	return map[string]string{"status": "accepted"}, nil
}

// EnvelopeRequest accepts a push-subscription envelope whose data field
// carries a base64 encoded instance snapshot document.
func (s *HTTPServer) EnvelopeRequest(resp http.ResponseWriter, req *http.Request) (interface{}, error) {
	if req.Method != http.MethodPost {
		return nil, CodedError(405, ErrInvalidMethod)
	}

	payload, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, CodedError(400, fmt.Sprintf("failed to read request body: %v", err))
	}

	if err := s.scaler.ScaleEnvelope(req.Context(), payload); err != nil {
		return nil, CodedError(422, err.Error())
	}

	return map[string]string{"status": "accepted"}, nil
}

// HealthRequest responds to health checks with basic version information.
func (s *HTTPServer) HealthRequest(resp http.ResponseWriter, req *http.Request) (interface{}, error) {
	if req.Method != http.MethodGet {
		return nil, CodedError(405, ErrInvalidMethod)
	}

	return map[string]string{
		"status":  "ok",
		"version": version.Get(),
	}, nil
}

// ErrInvalidMethod is the error message returned when an endpoint is hit
// with an incorrect HTTP method.
const ErrInvalidMethod = "Invalid method"

// HTTPCodedError is used to provide the HTTP error code along with the
// error.
type HTTPCodedError interface {
	error
	Code() int
}

// CodedError returns the HTTPCodedError struct with the code and message
// populated.
func CodedError(c int, m string) HTTPCodedError {
	return &codedError{m, c}
}

type codedError struct {
	m string
	c int
}

func (e *codedError) Error() string {
	return e.m
}

func (e *codedError) Code() int {
	return e.c
}
