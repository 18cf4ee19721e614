// Package naver queries the Naver local search API for kindergarten
// candidates.
package naver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"mung-manager/internal/domain/kindergartens"
	"mung-manager/internal/platform/httpclient"
)

const searchPath = "/v1/search/local.json"

type Client struct {
	http         *httpclient.Client
	clientID     string
	clientSecret string
}

func NewClient(hc *httpclient.Client, clientID, clientSecret string) (*Client, error) {
	if hc == nil {
		return nil, errors.New("naver: nil http client")
	}
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("naver: missing credentials")
	}
	return &Client{http: hc, clientID: clientID, clientSecret: clientSecret}, nil
}

type searchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Telephone   string `json:"telephone"`
		Address     string `json:"address"`
		RoadAddress string `json:"roadAddress"`
		MapX        string `json:"mapx"`
		MapY        string `json:"mapy"`
	} `json:"items"`
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// Search returns provider rows shaped as RawPetKindergarden mirrors. IDs
// are left empty; the caller assigns them when persisting.
func (c *Client) Search(ctx context.Context, query string) ([]kindergartens.RawPetKindergarden, error) {
	q := url.Values{
		"query":   {query},
		"display": {"10"},
	}
	headers := map[string]string{
		"X-Naver-Client-Id":     c.clientID,
		"X-Naver-Client-Secret": c.clientSecret,
	}

	var out searchResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, searchPath+"?"+q.Encode(), headers, nil, &out); err != nil {
		return nil, fmt.Errorf("naver: search request: %w", err)
	}

	rows := make([]kindergartens.RawPetKindergarden, 0, len(out.Items))
	for _, it := range out.Items {
		rows = append(rows, kindergartens.RawPetKindergarden{
			Name:        tagRe.ReplaceAllString(it.Title, ""),
			Tel:         it.Telephone,
			Address:     it.Address,
			RoadAddress: it.RoadAddress,
			AbbrAddress: abbreviate(it.RoadAddress),
			X:           coord(it.MapX),
			Y:           coord(it.MapY),
		})
	}
	return rows, nil
}

// coord parses the provider's scaled integer coordinates (1e7 units).
func coord(s string) float64 {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n / 1e7
}

// abbreviate keeps the first two words of a road address, which is the
// district-level form the client shows in pickers.
func abbreviate(addr string) string {
	parts := strings.Fields(addr)
	if len(parts) <= 2 {
		return addr
	}
	return strings.Join(parts[:2], " ")
}
