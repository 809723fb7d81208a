// Package protocol implements the newline-framed request/response format.
//
// A request is a single line "GET <endpoint>" or a line "POST <endpoint>"
// followed by one line containing a JSON body. Responses and
// server-initiated frames are single newline-terminated JSON objects.
package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
)

// Status codes carried as strings in the "statut" field.
const (
	StatusOK           = "200"
	StatusCreated      = "201"
	StatusBadRequest   = "400"
	StatusUnauthorized = "401"
	StatusForbidden    = "403"
	StatusNotFound     = "404"
	StatusConflict     = "409"
	StatusUnknown      = "520"
)

// bodyless lists the POST endpoints that carry no body line. Reading a body
// for them would block the connection until the next request arrives.
var bodyless = map[string]bool{
	"session/start": true,
}

// Request is one parsed client request.
type Request struct {
	Method   string
	Endpoint string
	Body     json.RawMessage // nil when no body line was read
}

// ReadRequest reads the next request from r, blocking until a full line
// (and, for POST, its body line) is available. Returns the underlying read
// error, typically io.EOF, when the connection is gone.
func ReadRequest(r *bufio.Reader) (Request, error) {
	line, err := readLine(r)
	if err != nil {
		return Request{}, err
	}

	method, endpoint, ok := strings.Cut(line, " ")
	if !ok {
		// Unparseable line: surface it to the router, which answers 400.
		return Request{Method: line}, nil
	}

	req := Request{Method: method, Endpoint: strings.TrimSpace(endpoint)}
	if method == "POST" && !bodyless[req.Endpoint] {
		body, err := readLine(r)
		if err != nil {
			return Request{}, err
		}
		req.Body = json.RawMessage(body)
	}
	return req, nil
}

// readLine reads up to the next newline, skipping empty lines.
func readLine(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			return line, nil
		}
	}
}

// DecodeBody unmarshals a request body into v. A missing body is an error:
// every POST endpoint that calls this requires one.
func (req Request) DecodeBody(v any) error {
	if len(req.Body) == 0 {
		return fmt.Errorf("missing request body")
	}
	if err := json.Unmarshal(req.Body, v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

// Envelope is the common part of every response. Embed it in endpoint
// response structs; Action is omitted when the originating endpoint is
// unknown.
type Envelope struct {
	Action  string `json:"action,omitempty"`
	Statut  string `json:"statut"`
	Message string `json:"message"`
}

// OK builds a 200 envelope for an endpoint.
func OK(action, message string) Envelope {
	return Envelope{Action: action, Statut: StatusOK, Message: message}
}

// Created builds a 201 envelope for an endpoint.
func Created(action, message string) Envelope {
	return Envelope{Action: action, Statut: StatusCreated, Message: message}
}

// Error builds an error envelope; action may be empty when the originating
// endpoint is unknown.
func Error(action, status, message string) Envelope {
	return Envelope{Action: action, Statut: status, Message: message}
}

// Encode marshals payload and appends the line terminator.
func Encode(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	return append(data, '\n'), nil
}
