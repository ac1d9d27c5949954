package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"anarchy.ttfm/straight/controller"
	"anarchy.ttfm/straight/metrics"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exposes the order controller over HTTP
type Router struct {
	// Order controller
	Controller *controller.Controller
	// Request metrics
	Metrics *metrics.Metrics
	// Served on /metrics when set
	Gatherer prometheus.Gatherer
	// Origins allowed to open websockets besides the server's own
	OriginPatterns []string
	// Base Gin Group to use for routing
	Base gin.IRoutes
}

const (
	GatewayIdParam = "gateway_id"
	IdParam        = "id"
	OrdersPath     = "/gateways/:" + GatewayIdParam + "/orders"
	OrderPath      = OrdersPath + "/:" + IdParam
	WebsocketPath  = OrderPath + "/websocket"
	MetricsPath    = "/metrics"
)

func (r *Router) request(ctx *gin.Context) (req controller.Request, err error) {
	params, err := Params(ctx.Request)
	if err != nil {
		return req, err
	}

	req = controller.Request{
		Method:     ctx.Request.Method,
		Path:       ctx.Request.URL.Path,
		GatewayID:  ctx.Param(GatewayIdParam),
		ID:         ctx.Param(IdParam),
		Params:     params,
		ClientAddr: ClientAddr(ctx.Request),
	}
	return req, nil
}

func write(ctx *gin.Context, res controller.Response) {
	for key, values := range res.Header {
		for _, value := range values {
			ctx.Writer.Header().Add(key, value)
		}
	}
	if len(res.Body) == 0 {
		ctx.Status(res.Status)
		return
	}
	ctx.Data(res.Status, res.Header.Get("Content-Type"), res.Body)
}

func (r *Router) dispatch(action controller.Action) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		req, err := r.request(ctx)
		if err != nil {
			ctx.String(http.StatusBadRequest, err.Error())
			return
		}

		res := r.Controller.Dispatch(ctx.Request.Context(), action, req)
		write(ctx, res)
	}
}

func (r *Router) websocket(ctx *gin.Context) {
	req, err := r.request(ctx)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())
		return
	}

	var socket *Socket
	if strings.EqualFold(ctx.GetHeader("Upgrade"), "websocket") {
		socket = NewSocket()
		req.Channel = socket
	}

	res := r.Controller.Dispatch(ctx.Request.Context(), controller.ActionWebsocket, req)
	if res.Status != http.StatusSwitchingProtocols {
		if socket != nil {
			socket.Leave()
		}
		write(ctx, res)
		return
	}

	conn, err := websocket.Accept(ctx.Writer, ctx.Request, &websocket.AcceptOptions{
		OriginPatterns: r.OriginPatterns,
	})
	if err != nil {
		// Accept already answered the client
		socket.Leave()
		return
	}
	socket.Serve(ctx.Request.Context(), conn)
}

// observe records the count and the latency of requests
func (r *Router) observe(handler string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		method := ctx.Request.Method
		r.Metrics.HttpRequestsTotal.WithLabelValues(handler, method, strconv.Itoa(ctx.Writer.Status())).Inc()
		r.Metrics.HttpRequestDuration.WithLabelValues(handler, method).Observe(time.Since(start).Seconds())
	}
}

// Register routes in the Gin engine
func (r *Router) Register() {
	r.Base.POST(OrdersPath, r.observe("create"), r.dispatch(controller.ActionCreate))
	r.Base.GET(OrderPath, r.observe("show"), r.dispatch(controller.ActionShow))
	r.Base.GET(WebsocketPath, r.observe("websocket"), r.websocket)

	if r.Gatherer != nil {
		r.Base.GET(MetricsPath, gin.WrapH(promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{})))
	}
}
