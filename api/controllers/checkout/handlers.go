package checkout

import (
	"net/http"

	"github.com/harvestconnect/harvestcart/api/controllers/cart"
	"github.com/harvestconnect/harvestcart/api/responses"
	cartsvc "github.com/harvestconnect/harvestcart/internal/cart"
	checkoutsvc "github.com/harvestconnect/harvestcart/internal/checkout"
	"github.com/harvestconnect/harvestcart/pkg/config"
	"github.com/harvestconnect/harvestcart/pkg/logger"
)

// CheckoutCreate hands the current cart over as a checkout session payload.
// The cart is left untouched.
func CheckoutCreate(opener cart.SessionOpener, cfg config.CheckoutConfig, logg *logger.Logger) http.HandlerFunc {
	opts := checkoutsvc.Options{BaseURL: cfg.BaseURL, Currency: cfg.Currency}
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := cart.Snapshot(r, opener)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := checkoutsvc.BuildSession(snap.Items, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"line_items":   len(session.LineItems),
				"amount_total": session.AmountTotal,
			})
			logg.Info(ctx, "checkout.handoff")
		}
		responses.WriteSuccess(w, session)
	}
}

// CheckoutSuccess clears the cart once the payment provider reports a
// completed order.
func CheckoutSuccess(opener cart.SessionOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := cart.Apply(r, opener, func(s *cartsvc.Store) { s.ClearCart() })
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
