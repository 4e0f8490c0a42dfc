// Package billing wraps the Stripe surface the product needs: checking
// for an active subscription to the product, creating checkout sessions,
// and decoding webhook events.
package billing

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type Service struct {
	api           *client.API
	productID     string
	priceID       string
	checkoutURL   string
	webhookSecret string
	log           *slog.Logger
}

func New(secretKey, productID, priceID, checkoutURL, webhookSecret string) *Service {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Service{
		api:           api,
		productID:     productID,
		priceID:       priceID,
		checkoutURL:   checkoutURL,
		webhookSecret: webhookSecret,
		log:           slog.With("component", "billing"),
	}
}

// HasActiveSubscription walks active subscriptions looking for one whose
// customer email matches and whose items include the configured product.
func (s *Service) HasActiveSubscription(email string) (bool, error) {
	if s.productID == "" {
		return false, fmt.Errorf("no Stripe product configured")
	}

	params := &stripe.SubscriptionListParams{
		Status: stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Limit = stripe.Int64(100)
	params.AddExpand("data.customer")

	iter := s.api.Subscriptions.List(params)
	for iter.Next() {
		sub := iter.Subscription()
		if sub.Customer == nil || !strings.EqualFold(sub.Customer.Email, email) {
			continue
		}
		if sub.Items == nil {
			continue
		}
		for _, item := range sub.Items.Data {
			if item.Price != nil && item.Price.Product != nil && item.Price.Product.ID == s.productID {
				s.log.Info("active subscription found", "email", email, "subscription", sub.ID)
				return true, nil
			}
		}
	}
	return false, iter.Err()
}

// CheckoutURL returns a payment URL for the given email. A configured
// payment link wins; otherwise a checkout session is created.
func (s *Service) CheckoutURL(email, origin string) (string, error) {
	successURL := fmt.Sprintf("%s/dashboard?email=%s", origin, url.QueryEscape(email))

	if s.checkoutURL != "" {
		return fmt.Sprintf("%s?success_url=%s&cancel_url=%s",
			s.checkoutURL, url.QueryEscape(successURL), url.QueryEscape(origin)), nil
	}
	if s.priceID == "" {
		return "", fmt.Errorf("no Stripe price configured")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(email),
		SuccessURL:    stripe.String(successURL),
		CancelURL:     stripe.String(origin),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(s.priceID), Quantity: stripe.Int64(1)},
		},
	}
	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("creating checkout session: %w", err)
	}
	return session.URL, nil
}

// GetCustomerEmail fetches a Stripe customer's email by customer ID.
func (s *Service) GetCustomerEmail(customerID string) (string, error) {
	customer, err := s.api.Customers.Get(customerID, nil)
	if err != nil {
		return "", fmt.Errorf("fetching customer %s: %w", customerID, err)
	}
	return customer.Email, nil
}

// CompletedCheckoutEmail verifies a webhook payload and, when the event
// is a completed checkout, returns the purchaser's email and Stripe
// customer ID. It returns empty strings for event types the service does
// not care about.
func (s *Service) CompletedCheckoutEmail(payload []byte, signature string) (string, string, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return "", "", fmt.Errorf("verifying webhook signature: %w", err)
	}

	if event.Type != "checkout.session.completed" {
		s.log.Debug("ignoring webhook event", "type", event.Type)
		return "", "", nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", "", fmt.Errorf("decoding checkout session: %w", err)
	}

	var customerID string
	if session.Customer != nil {
		customerID = session.Customer.ID
	}

	email := session.CustomerEmail
	if email == "" && session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}
	if email == "" && customerID != "" {
		email, err = s.GetCustomerEmail(customerID)
		if err != nil {
			return "", "", err
		}
	}
	return email, customerID, nil
}
