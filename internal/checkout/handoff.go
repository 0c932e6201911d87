package checkout

import (
	"math"
	"strings"

	"github.com/harvestconnect/harvestcart/internal/cart"
	pkgerrors "github.com/harvestconnect/harvestcart/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	ModePayment       = "payment"
	PaymentMethodCard = "card"
	DefaultCurrency   = "usd"
	DefaultBaseURL    = "http://localhost:3000"

	productDescription = "Product from HarvestConnect marketplace"
	sessionPlaceholder = "{CHECKOUT_SESSION_ID}"
)

var (
	minorUnits = decimal.NewFromInt(100)
	maxAmount  = decimal.NewFromInt(math.MaxInt64)
)

// Options configures the handoff URLs and currency.
type Options struct {
	BaseURL  string
	Currency string
}

// Session is the payload handed to the payment provider to open a hosted
// checkout page. Amounts are in minor units.
type Session struct {
	Mode               string     `json:"mode"`
	PaymentMethodTypes []string   `json:"payment_method_types"`
	LineItems          []LineItem `json:"line_items"`
	SuccessURL         string     `json:"success_url"`
	CancelURL          string     `json:"cancel_url"`
	AmountTotal        int64      `json:"amount_total"`
}

type LineItem struct {
	PriceData PriceData `json:"price_data"`
	Quantity  int       `json:"quantity"`
}

type PriceData struct {
	Currency    string      `json:"currency"`
	ProductData ProductData `json:"product_data"`
	UnitAmount  int64       `json:"unit_amount"`
}

type ProductData struct {
	Name        string   `json:"name"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
}

// BuildSession converts a cart snapshot into a checkout handoff. The cart is
// not modified; it is cleared separately once the order completes.
func BuildSession(items []cart.LineItem, opts Options) (*Session, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "No items in cart")
	}

	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	currency := strings.ToLower(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	session := &Session{
		Mode:               ModePayment,
		PaymentMethodTypes: []string{PaymentMethodCard},
		LineItems:          make([]LineItem, 0, len(items)),
		SuccessURL:         base + "/checkout/success?session_id=" + sessionPlaceholder,
		CancelURL:          base + "/cart",
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be at least 1").
				WithDetails(map[string]any{"id": item.ID})
		}
		if math.IsNaN(item.Price) || math.IsInf(item.Price, 0) || item.Price < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item price must be a non-negative number").
				WithDetails(map[string]any{"id": item.ID})
		}
		unitDec := minorAmount(item.Price)
		total = total.Add(unitDec.Mul(decimal.NewFromInt(int64(item.Quantity))))
		if unitDec.GreaterThan(maxAmount) || total.GreaterThan(maxAmount) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total exceeds the supported amount").
				WithDetails(map[string]any{"id": item.ID})
		}
		unit := unitDec.IntPart()
		images := []string{}
		if item.Image != "" {
			images = append(images, item.Image)
		}
		session.LineItems = append(session.LineItems, LineItem{
			PriceData: PriceData{
				Currency: currency,
				ProductData: ProductData{
					Name:        item.Title,
					Images:      images,
					Description: productDescription,
				},
				UnitAmount: unit,
			},
			Quantity: item.Quantity,
		})
	}
	session.AmountTotal = total.IntPart()
	return session, nil
}

// UnitAmount converts a major-unit price to minor units, rounding half away
// from zero.
func UnitAmount(price float64) int64 {
	return minorAmount(price).IntPart()
}

func minorAmount(price float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(minorUnits).Round(0)
}
