// Package address resolves Brazilian postal codes through the ViaCEP API.
package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/middleware"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
)

var (
	ErrInvalidPostalCode = errors.New("postal code must have 8 digits")
	ErrNotFound          = errors.New("postal code not found")
)

type Address struct {
	PostalCode string `json:"postalCode"`
	Street     string `json:"street"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	u, err := url.Parse(baseURL)
	if err != nil {
		// Fail fast: config error
		panic(fmt.Sprintf("invalid address lookup url %q: %v", baseURL, err))
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{BaseURL: u, HTTP: httpClient}
}

type viaCEPResponse struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	// Erro is true or "true" depending on the API version.
	Erro any `json:"erro"`
}

func (r viaCEPResponse) notFound() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// Lookup resolves a postal code. Formatting characters are ignored; anything
// other than 8 digits fails without a network call.
func (c *Client) Lookup(ctx context.Context, postalCode string) (Address, error) {
	cep := order.Digits(postalCode)
	if len(cep) != 8 {
		return Address{}, ErrInvalidPostalCode
	}

	u := c.BaseURL.ResolveReference(&url.URL{Path: "/ws/" + cep + "/json/"})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Address{}, err
	}
	req.Header.Set("Accept", "application/json")
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Address{}, fmt.Errorf("address lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return Address{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return Address{}, fmt.Errorf("address lookup: unexpected status %d", resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Address{}, fmt.Errorf("decode address: %w", err)
	}
	if body.notFound() {
		return Address{}, ErrNotFound
	}

	return Address{
		PostalCode: order.FormatCEP(cep),
		Street:     body.Logradouro,
		Complement: body.Complemento,
		District:   body.Bairro,
		City:       body.Localidade,
		State:      body.UF,
	}, nil
}
