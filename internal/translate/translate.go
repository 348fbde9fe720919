package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

var ErrTranslationFailed = errors.New("translation failed")

// Client calls the public Google Translate JSON endpoint.
type Client struct {
	client *resty.Client
	target string
}

func NewClient(baseURL, target string, timeout time.Duration) *Client {
	return &Client{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		target: target,
	}
}

func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     "auto",
			"tl":     c.target,
			"dt":     "t",
		}).
		SetFormData(map[string]string{"q": text}).
		Post("/translate_a/single")

	if err != nil {
		slog.Error("unable to reach translation service", "error", err)
		return "", errors.Join(ErrTranslationFailed, err)
	}

	if !res.IsSuccess() {
		slog.Error("translation service returned error", "status_code", res.StatusCode(), "body", res.String())
		return "", ErrTranslationFailed
	}

	return parseResponse(res.Body())
}

// The response is a nested array whose first element lists
// [translated, original, ...] segments.
func parseResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", ErrTranslationFailed
	}

	segments := gjson.GetBytes(body, "0.#.0").Array()
	if len(segments) == 0 {
		return "", ErrTranslationFailed
	}

	var b strings.Builder
	for _, segment := range segments {
		b.WriteString(segment.String())
	}
	return b.String(), nil
}
