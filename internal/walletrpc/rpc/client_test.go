package rpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anarchy.ttfm/straight/internal/walletrpc/rpc"
	"github.com/stretchr/testify/assert"
)

func newServer(t *testing.T, handle func(method string, params json.RawMessage) (result any, rpcErr *rpc.Error)) (client *rpc.Client) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Id     uint64          `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		result, rpcErr := handle(req.Method, req.Params)
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.Id,
			"result":  result,
			"error":   rpcErr,
		})
	}))
	t.Cleanup(server.Close)

	return rpc.New(rpc.Config{
		Url:           server.URL + "/json_rpc",
		CustomHeaders: map[string]string{"X-Api-Key": "secret"},
	})
}

func Test_Client(t *testing.T) {
	t.Run("GetBalance", func(t *testing.T) {
		assertions := assert.New(t)

		client := newServer(t, func(method string, params json.RawMessage) (result any, rpcErr *rpc.Error) {
			assertions.Equal("get_balance", method)
			assertions.JSONEq(`{"account_index":0,"address_indices":[3]}`, string(params))
			return rpc.GetBalanceResponse{
				Balance:         10,
				UnlockedBalance: 5,
				PerSubaddress: []rpc.SubaddressBalance{
					{AddressIndex: 3, Address: "addr3", Balance: 10, UnlockedBalance: 5},
				},
			}, nil
		})

		res, err := client.GetBalance(context.TODO(), &rpc.GetBalanceRequest{AddressIndices: []uint32{3}})
		assertions.Nil(err, "failed to get balance")
		assertions.Len(res.PerSubaddress, 1)
		assertions.Equal("addr3", res.PerSubaddress[0].Address)
		assertions.Equal(uint64(5), res.PerSubaddress[0].UnlockedBalance)
	})
	t.Run("Error", func(t *testing.T) {
		assertions := assert.New(t)

		client := newServer(t, func(method string, params json.RawMessage) (result any, rpcErr *rpc.Error) {
			return nil, &rpc.Error{Code: -13, Message: "No wallet file"}
		})

		err := client.Store(context.TODO())
		var rpcErr *rpc.Error
		assertions.ErrorAs(err, &rpcErr)
		assertions.Equal(-13, rpcErr.Code)
	})
}
