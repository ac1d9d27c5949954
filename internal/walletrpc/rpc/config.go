package rpc

import (
	"net/http"
)

// Config holds the configuration of a monero-wallet-rpc client.
type Config struct {
	// URL including the /json_rpc endpoint
	// Example: http://127.0.0.1:18083/json_rpc
	Url string
	// Custom headers to send
	CustomHeaders map[string]string
	// HTTP Client to use. Set a digest transport when the RPC requires --rpc-login
	Client *http.Client
}
