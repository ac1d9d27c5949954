package rpc

import "context"

type (
	RefreshRequest struct {
		StartHeight uint64 `json:"start_height,omitempty"`
	}
	RefreshResponse struct {
		BlocksFetched uint64 `json:"blocks_fetched"`
		ReceivedMoney bool   `json:"received_money"`
	}
	CreateAccountRequest struct {
		Label string `json:"label,omitempty"`
	}
	CreateAccountResponse struct {
		AccountIndex uint64 `json:"account_index"`
		Address      string `json:"address"`
	}
	CreateAddressRequest struct {
		AccountIndex uint64 `json:"account_index"`
		Label        string `json:"label,omitempty"`
	}
	CreateAddressResponse struct {
		Address      string `json:"address"`
		AddressIndex uint64 `json:"address_index"`
	}
	GetBalanceRequest struct {
		AccountIndex   uint64   `json:"account_index"`
		AddressIndices []uint32 `json:"address_indices,omitempty"`
	}
	SubaddressBalance struct {
		AccountIndex    uint64 `json:"account_index"`
		AddressIndex    uint64 `json:"address_index"`
		Address         string `json:"address"`
		Balance         uint64 `json:"balance"`
		UnlockedBalance uint64 `json:"unlocked_balance"`
		Label           string `json:"label"`
	}
	GetBalanceResponse struct {
		Balance         uint64              `json:"balance"`
		UnlockedBalance uint64              `json:"unlocked_balance"`
		PerSubaddress   []SubaddressBalance `json:"per_subaddress"`
	}
	GetAddressRequest struct {
		AccountIndex uint64   `json:"account_index"`
		AddressIndex []uint32 `json:"address_index,omitempty"`
	}
	AddressEntry struct {
		Address      string `json:"address"`
		AddressIndex uint64 `json:"address_index"`
		Label        string `json:"label"`
		Used         bool   `json:"used"`
	}
	GetAddressResponse struct {
		Address   string         `json:"address"`
		Addresses []AddressEntry `json:"addresses"`
	}
)

func (c *Client) Refresh(ctx context.Context, req *RefreshRequest) (res RefreshResponse, err error) {
	err = c.Do(ctx, "refresh", req, &res)
	return res, err
}

// Store persists the wallet file
func (c *Client) Store(ctx context.Context) (err error) {
	return c.Do(ctx, "store", nil, nil)
}

func (c *Client) CreateAccount(ctx context.Context, req *CreateAccountRequest) (res CreateAccountResponse, err error) {
	err = c.Do(ctx, "create_account", req, &res)
	return res, err
}

func (c *Client) CreateAddress(ctx context.Context, req *CreateAddressRequest) (res CreateAddressResponse, err error) {
	err = c.Do(ctx, "create_address", req, &res)
	return res, err
}

func (c *Client) GetBalance(ctx context.Context, req *GetBalanceRequest) (res GetBalanceResponse, err error) {
	err = c.Do(ctx, "get_balance", req, &res)
	return res, err
}

func (c *Client) GetAddress(ctx context.Context, req *GetAddressRequest) (res GetAddressResponse, err error) {
	err = c.Do(ctx, "get_address", req, &res)
	return res, err
}
