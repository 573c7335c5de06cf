package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"futures-trader/internal/types"

	"github.com/go-resty/resty/v2"
)

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, signed bool, out any) error {
	return c.do(ctx, resty.MethodGet, endpoint, params, signed, out)
}

func (c *Client) post(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.do(ctx, resty.MethodPost, endpoint, params, true, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, signed bool, out any) error {
	if params == nil {
		params = url.Values{}
	}

	query := params.Encode()
	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", strconv.FormatInt(c.p.RecvWindow.Milliseconds(), 10))
		query = params.Encode()
		query += "&signature=" + c.sign(query)
	}

	req := c.httpc.R().SetContext(ctx)
	if query != "" {
		req.SetQueryString(query)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return types.NewExecutionError(0, "request to "+endpoint+" failed", err)
	}

	if resp.IsError() {
		return apiErrorFrom(endpoint, resp)
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return types.NewExecutionError(0, "decode response from "+endpoint, err)
		}
	}
	return nil
}

// sign computes the HMAC-SHA256 signature over the exact query string sent.
func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.p.APISecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func apiErrorFrom(endpoint string, resp *resty.Response) error {
	var apiErr apiError
	if err := json.Unmarshal(resp.Body(), &apiErr); err != nil || apiErr.Msg == "" {
		return types.NewExecutionError(0,
			fmt.Sprintf("%s returned HTTP %d", endpoint, resp.StatusCode()), nil)
	}

	switch apiErr.Code {
	case codeInvalidSymbol:
		return types.NewExecutionError(apiErr.Code, apiErr.Msg,
			fmt.Errorf("%w: %s", types.ErrSymbolNotFound, apiErr.Msg))
	case codeInsufficientMargin:
		return types.NewExecutionError(apiErr.Code, apiErr.Msg,
			fmt.Errorf("%w: %s", types.ErrInsufficientBalance, apiErr.Msg))
	default:
		return types.NewExecutionError(apiErr.Code, apiErr.Msg, nil)
	}
}
