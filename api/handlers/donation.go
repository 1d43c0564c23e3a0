package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.uber.org/zap"

	"github.com/medialibertaire/media-libertaire-api/config"
)

// minDonationCents is the smallest accepted donation, in euro cents
const minDonationCents = 100

// Donation handles one-off support payments through Stripe Checkout
type Donation struct {
	BaseURL string
}

type donationRequest struct {
	Amount int64 `json:"amount"`
}

type donationResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSessionHandler creates a Stripe Checkout session for a
// one-off donation and returns its hosted payment URL
func (d Donation) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Amount < minDonationCents {
		config.ErrorStatus("donation amount is below the minimum", http.StatusBadRequest, w, fmt.Errorf("amount %d", req.Amount))
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyEUR)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Soutien à Média Libertaire"),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(d.BaseURL + "/api/v1/success"),
		CancelURL:  stripe.String(d.BaseURL + "/api/v1/cancel"),
	}

	s, err := session.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("created donation checkout session", "session", s.ID, "amount", req.Amount)

	b, err := json.Marshal(donationResponse{ID: s.ID, URL: s.URL})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// HandleSuccessRedirect acknowledges a completed checkout
func (d Donation) HandleSuccessRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "merci pour votre soutien"}`))
}

// HandleCancelRedirect acknowledges an abandoned checkout
func (d Donation) HandleCancelRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "paiement annulé"}`))
}
