package gateway

import (
	"errors"
	"fmt"
	"log/slog"

	"anarchy.ttfm/straight/orders"
)

var (
	ErrGatewayInactive  = errors.New("the gateway is inactive, you cannot create order with it")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidOrderId   = errors.New("invalid order id")
	ErrAddressMismatch  = errors.New("wallet returned a different address")
)

// Gateway is one merchant endpoint. It issues orders and tracks them
type Gateway struct {
	config   Config
	hashedId string
	engine   *Engine
	logger   *slog.Logger
}

func New(engine *Engine, config Config) (g *Gateway, err error) {
	config, err = config.Normalize()
	if err != nil {
		return nil, err
	}

	g = &Gateway{
		config:   config,
		hashedId: HashedId(config.Id),
		engine:   engine,
		logger:   engine.logger.With("gateway", config.Id),
	}
	return g, nil
}

func (g *Gateway) Id() (id uint64) {
	return g.config.Id
}

func (g *Gateway) HashedId() (hashedId string) {
	return g.hashedId
}

// CheckSignature reports whether orders must be signed
func (g *Gateway) CheckSignature() (check bool) {
	return g.config.CheckSignature
}

func (g *Gateway) Active() (active bool) {
	return g.config.Active
}

// CompletedAbove is the status past which an order is completed
func (g *Gateway) CompletedAbove() (status orders.Status) {
	return g.engine.completedAbove
}

func (g *Gateway) String() string {
	return fmt.Sprintf("gateway(%d)", g.config.Id)
}
