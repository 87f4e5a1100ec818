package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	catalogcontroller "ferreteria/internal/catalog/controller"
	creditcontroller "ferreteria/internal/credit/controller"
	"ferreteria/internal/domain"
	salecontroller "ferreteria/internal/sale/controller"
	stockcontroller "ferreteria/internal/stock/controller"
	"ferreteria/internal/web"
)

type Controllers struct {
	Sale    *salecontroller.SaleController
	Stock   *stockcontroller.StockController
	Catalog *catalogcontroller.ProductController
	Search  *catalogcontroller.SearchController
	Credit  *creditcontroller.CreditController
}

// Pinger is a dependency the health check probes.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func NewRouter(c Controllers, checks map[string]Pinger, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", Health(checks, logger))

	r.Group(func(r chi.Router) {
		r.Use(Identity(logger))

		r.Route("/sales", func(r chi.Router) {
			r.With(Require(domain.CapCreateSale, logger)).Post("/", c.Sale.Create)
			r.With(Require(domain.CapViewReceipt, logger)).Get("/{saleId}/receipt", c.Sale.GetReceipt)
		})

		r.Route("/stock", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(Require(domain.CapViewStock, logger))
				r.Get("/low", c.Stock.ListLowStock)
				r.Get("/movements", c.Stock.ListMovements)
				r.Post("/quantities", c.Stock.GetQuantities)
				r.Get("/{productId}", c.Stock.GetQuantity)
			})
			r.With(Require(domain.CapAdjustStock, logger)).Post("/{productId}/ingress", c.Stock.Ingress)
			r.With(Require(domain.CapAdjustStock, logger)).Post("/{productId}/egress", c.Stock.Egress)
			r.With(Require(domain.CapAdjustStockNegative, logger)).Post("/{productId}/egress-negative", c.Stock.EgressAllowingNegative)
		})

		r.Route("/products", func(r chi.Router) {
			r.With(Require(domain.CapViewStock, logger)).Post("/search", c.Search.SearchProducts)
			r.Group(func(r chi.Router) {
				r.Use(Require(domain.CapManageCatalog, logger))
				r.Post("/", c.Catalog.Create)
				r.Get("/{productId}/edit", c.Catalog.GetForEdit)
				r.Put("/{productId}", c.Catalog.Update)
			})
		})

		r.Route("/customers/{customerId}", func(r chi.Router) {
			r.Use(Require(domain.CapManageCredit, logger))
			r.Get("/balance", c.Credit.GetBalance)
			r.Post("/payments", c.Credit.RegisterPayment)
		})
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health reports 503 when any dependency fails its ping.
func Health(checks map[string]Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, p := range checks {
			if err := p.PingContext(ctx); err != nil {
				logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "up"
		}

		web.WriteJSON(w, logger, status, resp)
	}
}
