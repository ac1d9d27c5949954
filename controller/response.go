package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"anarchy.ttfm/straight/gateway"
)

type Request struct {
	Method string
	Path   string
	// Hashed gateway id taken from the URL
	GatewayID string
	// Order id or payment id taken from the URL
	ID string
	// Query, form and body params merged
	Params map[string]any
	// First X-Forwarded-For entry or the peer address
	ClientAddr string
	// Receives the order updates of a websocket request
	Channel gateway.Subscriber
}

// Response is what the transport writes back.
// Body holds JSON for orders and plain text for everything else
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func Text(status int, message string) (res *Response) {
	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	return &Response{Status: status, Header: header, Body: []byte(message)}
}

func JSON(status int, v any) (res *Response) {
	body, err := json.Marshal(v)
	if err != nil {
		return Text(http.StatusInternalServerError, msgInternalError)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &Response{Status: status, Header: header, Body: body}
}

// NotFound echoes the method and the path of the request
func NotFound(req Request) (res *Response) {
	var segments []string
	for _, segment := range strings.Split(req.Path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return Text(http.StatusNotFound, fmt.Sprintf("%s /%s Not found", req.Method, strings.Join(segments, "/")))
}
