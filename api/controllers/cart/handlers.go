package cart

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harvestconnect/harvestcart/api/middleware"
	"github.com/harvestconnect/harvestcart/api/responses"
	"github.com/harvestconnect/harvestcart/api/validators"
	cartsvc "github.com/harvestconnect/harvestcart/internal/cart"
	"github.com/harvestconnect/harvestcart/internal/sessions"
	pkgerrors "github.com/harvestconnect/harvestcart/pkg/errors"
	"github.com/harvestconnect/harvestcart/pkg/logger"
)

// SessionOpener resolves the live cart session for a session id.
type SessionOpener interface {
	Open(ctx context.Context, sessionID string) (*sessions.Session, error)
}

// CartFetch returns the caller's cart.
func CartFetch(opener SessionOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := Apply(r, opener, nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem merges the posted line into the cart.
func CartAddItem(opener SessionOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item := payload.toLineItem()
		view, err := Apply(r, opener, func(s *cartsvc.Store) { s.AddItem(item) })
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartUpdateQuantity sets the absolute quantity of a line.
func CartUpdateQuantity(opener SessionOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePositiveID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity := *payload.Quantity
		view, err := Apply(r, opener, func(s *cartsvc.Store) { s.UpdateQuantity(id, quantity) })
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartRemoveItem drops a line from the cart.
func CartRemoveItem(opener SessionOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePositiveID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := Apply(r, opener, func(s *cartsvc.Store) { s.RemoveItem(id) })
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartClear empties the cart.
func CartClear(opener SessionOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := Apply(r, opener, func(s *cartsvc.Store) { s.ClearCart() })
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Apply opens the request's session, runs mutate (when non-nil) and returns
// the resulting view under one session lock.
func Apply(r *http.Request, opener SessionOpener, mutate func(*cartsvc.Store)) (CartView, error) {
	sess, err := openSession(r, opener)
	if err != nil {
		return CartView{}, err
	}

	var view CartView
	sess.Do(func(s *cartsvc.Store) {
		if mutate != nil {
			mutate(s)
		}
		view = NewCartView(s.Snapshot(), sess.Inbox.Drain())
	})
	return view, nil
}

// Snapshot reads the request's cart without draining pending notifications,
// so they are still delivered with the next cart view.
func Snapshot(r *http.Request, opener SessionOpener) (cartsvc.Snapshot, error) {
	sess, err := openSession(r, opener)
	if err != nil {
		return cartsvc.Snapshot{}, err
	}
	var snap cartsvc.Snapshot
	sess.Do(func(s *cartsvc.Store) {
		snap = s.Snapshot()
	})
	return snap, nil
}

func openSession(r *http.Request, opener SessionOpener) (*sessions.Session, error) {
	if opener == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart sessions unavailable")
	}
	sessionID := middleware.CartSessionFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing")
	}
	return opener.Open(r.Context(), sessionID)
}
