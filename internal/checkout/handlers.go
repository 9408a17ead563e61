package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/offer"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/receipt"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

// Handler exposes the checkout HTTP endpoints.
type Handler struct {
	Service  *Service
	Printer  receipt.Printer
	Validate *validator.Validate
	// Limits bounds item quantities; the zero value means cart.DefaultLimits.
	Limits cart.Limits
}

type checkoutItem struct {
	Name     string           `json:"name" validate:"required,max=200"`
	Unit     string           `json:"unit" validate:"required"`
	Quantity *decimal.Decimal `json:"quantity"`
}

type checkoutRequest struct {
	Items []checkoutItem `json:"items" validate:"max=500,dive"`
}

type offerView struct {
	Product     catalog.Product  `json:"product"`
	Kind        string           `json:"kind"`
	Description string           `json:"description"`
	N           int              `json:"n,omitempty"`
	Percent     *decimal.Decimal `json:"percent,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

type priceView struct {
	Product   catalog.Product `json:"product"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout service not configured", nil)
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, common.CodeTooLarge, "request body too large", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request payload", nil)
		return
	}
	if err := h.validator().Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid checkout request", validationDetails(err))
		return
	}
	c, err := buildCart(req, h.Limits)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	res, err := h.Service.Checkout(r.Context(), c)
	if err != nil {
		common.WriteError(w, mapError(err))
		return
	}
	w.Header().Set("X-Receipt-ID", res.ID.String())
	if common.WantsText(r) {
		common.Text(w, http.StatusOK, h.Printer.Print(res.Receipt))
		return
	}
	common.Data(w, http.StatusOK, res)
}

// Offers handles GET /api/v1/offers.
func (h *Handler) Offers(w http.ResponseWriter, _ *http.Request) {
	var book *offer.Book
	if h.Service != nil {
		book = h.Service.Offers
	}
	views := make([]offerView, 0, book.Len())
	for _, o := range book.All() {
		v := offerView{
			Product:     o.Product,
			Kind:        o.Rule.Kind.String(),
			Description: o.Rule.Description(),
		}
		switch o.Rule.Kind {
		case pricing.KindPercentOff:
			pct := o.Rule.Percent
			v.Percent = &pct
		case pricing.KindBundle:
			v.N = o.Rule.N
		case pricing.KindFixedPriceForN:
			price := o.Rule.Price
			v.N = o.Rule.N
			v.Price = &price
		}
		views = append(views, v)
	}
	common.Data(w, http.StatusOK, views)
}

// ProductPrice handles GET /api/v1/products/{unit}/{name}/price.
func (h *Handler) ProductPrice(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil || h.Service.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog not configured", nil)
		return
	}
	unit, err := catalog.ParseUnit(chi.URLParam(r, "unit"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "unknown unit", nil)
		return
	}
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid product name", nil)
		return
	}
	p := catalog.NewProduct(name, unit)
	price, err := h.Service.Catalog.UnitPrice(r.Context(), p)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "product not found", map[string]any{"product": p})
			return
		}
		common.WriteError(w, mapError(err))
		return
	}
	common.Data(w, http.StatusOK, priceView{Product: p, UnitPrice: price})
}

var defaultValidate = validator.New(validator.WithRequiredStructEnabled())

func (h *Handler) validator() *validator.Validate {
	if h.Validate == nil {
		return defaultValidate
	}
	return h.Validate
}

func buildCart(req checkoutRequest, limits cart.Limits) (*cart.Cart, error) {
	c := cart.NewWithLimits(limits)
	for i, item := range req.Items {
		unit, err := catalog.ParseUnit(item.Unit)
		if err != nil {
			return nil, common.BadRequest("invalid unit", err).WithDetails(map[string]any{"item": i, "unit": item.Unit})
		}
		p := catalog.NewProduct(item.Name, unit)
		if p.Name == "" {
			return nil, common.BadRequest("invalid product name", nil).WithDetails(map[string]any{"item": i})
		}
		quantity := decimal.NewFromInt(1)
		if item.Quantity != nil {
			quantity = *item.Quantity
		}
		if err := c.AddItemQuantity(p, quantity); err != nil {
			return nil, common.BadRequest("invalid quantity", err).WithDetails(map[string]any{"item": i})
		}
	}
	return c, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		return common.NewAppError(common.CodeProductNotFound, "product not in catalog", http.StatusUnprocessableEntity, err)
	case errors.Is(err, resilience.ErrOpenCircuit):
		return common.Unavailable("catalog temporarily unavailable", err)
	default:
		return common.Internal(err)
	}
}

func validationDetails(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{"field": fe.Namespace(), "rule": fe.Tag()})
	}
	return out
}
