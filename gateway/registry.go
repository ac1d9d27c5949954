package gateway

import (
	"context"
	"fmt"
	"sync"

	"anarchy.ttfm/straight/utils"
)

const MaxConcurrentJobs = 100

// Registry indexes the configured gateways. It is read only once built
type Registry struct {
	engine     *Engine
	all        []*Gateway
	byId       map[uint64]*Gateway
	byHashedId map[string]*Gateway
}

func NewRegistry(engine *Engine, gateways ...*Gateway) (r *Registry, err error) {
	r = &Registry{
		engine:     engine,
		byId:       make(map[uint64]*Gateway, len(gateways)),
		byHashedId: make(map[string]*Gateway, len(gateways)),
	}
	for _, g := range gateways {
		if _, found := r.byId[g.Id()]; found {
			return nil, fmt.Errorf("%w: duplicated gateway id %d", ErrInvalidConfig, g.Id())
		}
		r.all = append(r.all, g)
		r.byId[g.Id()] = g
		r.byHashedId[g.HashedId()] = g
	}
	return r, nil
}

func (r *Registry) FindByHashedID(hashedId string) (g *Gateway, found bool) {
	g, found = r.byHashedId[hashedId]
	return g, found
}

func (r *Registry) ById(id uint64) (g *Gateway, found bool) {
	g, found = r.byId[id]
	return g, found
}

func (r *Registry) All() (gateways []*Gateway) {
	return r.all
}

// ResumeTracking restarts the status checks of every pending order, as after
// a restart. Each order is checked once right away so orders that settled or
// expired while nobody was watching are closed before anything is spawned
func (r *Registry) ResumeTracking(ctx context.Context, spawn Spawner) (err error) {
	pending, errChan := r.engine.store.StreamPending()
	defer utils.ConsumeChannel(pending)
	defer utils.ConsumeChannel(errChan)

	var jobs = utils.NewJobsPull(MaxConcurrentJobs)
	var wg sync.WaitGroup
	for order := range pending {
		g, found := r.ById(order.GatewayId)
		if !found {
			r.engine.logger.Warn("pending order of an unknown gateway", "order", order.Id, "gateway", order.GatewayId)
			continue
		}

		jobs.Get()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer jobs.Put()

			_, err := g.checkStatus(ctx, &order)
			if err != nil {
				g.logger.Warn("failed to check pending order", "order", order.Id, "error", err)
			}
			if order.Status.Terminal() && !order.StatusChanged() {
				return
			}
			spawn(fmt.Sprintf("status check order %d", order.Id), func() error {
				return g.StartPeriodicStatusCheck(ctx, order)
			})
		}()
	}

	wg.Wait()

	err = <-errChan
	if err != nil {
		return fmt.Errorf("failed to stream pending orders: %w", err)
	}
	return nil
}
