// Package payreturn receives the payment processor's return redirect.
//
// Both route naming schemes map to the same handler; only the outcome class
// differs.
package payreturn

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/model"
)

// Routes maps every return path to its outcome.
var Routes = map[string]model.PaymentOutcome{
	"/compra-exitosa":   model.PaymentSuccess,
	"/compra-fallida":   model.PaymentFailure,
	"/compra-pendiente": model.PaymentPending,
	"/success":          model.PaymentSuccess,
	"/failure":          model.PaymentFailure,
	"/pending":          model.PaymentPending,
}

// Sink receives each parsed result.
type Sink func(model.PaymentResult)

// ShopFunc returns the slug of the last shop the buyer was in, or "".
type ShopFunc func(ctx context.Context) string

type Handler struct {
	sink Sink
	shop ShopFunc
	log  *zap.Logger
}

func NewHandler(sink Sink, shop ShopFunc, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{sink: sink, shop: shop, log: log}
}

// RegisterRoutes mounts every return path on router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	for path, outcome := range Routes {
		router.GET(path, h.handle(outcome))
	}
}

// NewRouter builds a gin engine serving only the return paths.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.RegisterRoutes(r)
	return r
}

// Response is the JSON body answered to the browser.
type Response struct {
	model.PaymentResult
	Title    string `json:"title"`
	Message  string `json:"message"`
	BackPath string `json:"back"`
}

// Parse reads the processor query parameters. The order reference is the
// processor's external_reference; status falls back to the outcome.
func Parse(outcome model.PaymentOutcome, q func(string) string) model.PaymentResult {
	res := model.PaymentResult{
		Outcome:   outcome,
		PaymentID: q("payment_id"),
		Status:    q("status"),
		OrderRef:  q("external_reference"),
	}
	if res.Status == "" {
		res.Status = string(outcome)
	}
	return res
}

func (h *Handler) handle(outcome model.PaymentOutcome) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := Parse(outcome, c.Query)
		h.log.Info("payment return",
			zap.String("outcome", string(res.Outcome)),
			zap.String("payment_id", res.PaymentID),
			zap.String("order", res.OrderRef))

		if h.sink != nil {
			h.sink(res)
		}

		back := "/"
		if h.shop != nil {
			if slug := h.shop(c.Request.Context()); slug != "" {
				back = "/tienda/" + slug + "/catalogo"
			}
		}
		title, msg := Describe(outcome)
		c.JSON(http.StatusOK, Response{PaymentResult: res, Title: title, Message: msg, BackPath: back})
	}
}

// Describe returns the title and message shown for an outcome.
func Describe(o model.PaymentOutcome) (string, string) {
	switch o {
	case model.PaymentFailure:
		return "Payment failed", "the payment was rejected or cancelled, please try again"
	case model.PaymentPending:
		return "Payment pending", "your payment is being processed, you will be notified when it is confirmed"
	}
	return "Payment successful", "your purchase was processed, the details were sent by email"
}

// Serve runs handler on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()
	log.Info("payment return listening", zap.String("addr", lis.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
