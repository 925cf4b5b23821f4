package client

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type Options struct {
	// BaseURL of the logboard service, e.g. https://logboard.example.org
	BaseURL            string
	Timeout            time.Duration
	BearerToken        string
	InsecureSkipVerify bool
	// PollTimeoutSeconds is the long-poll timeout used by WatchSummaries.
	PollTimeoutSeconds uint
}

func NewRestyClient(options Options) *resty.Client {
	client := resty.New().
		SetBaseURL(options.BaseURL).
		SetHeader("Accept", "application/json")

	if options.Timeout > 0 {
		client.SetTimeout(options.Timeout)
	}
	if options.BearerToken != "" {
		client.SetAuthToken(options.BearerToken)
	}
	if options.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})
	}

	return client
}

// restyRoundTripper lets the long-poll client share the resty configuration (auth, TLS).
type restyRoundTripper struct {
	restyClient *resty.Client
}

func (r *restyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	restyReq := r.restyClient.R().
		SetContext(req.Context()).
		SetDoNotParseResponse(true)

	for k, v := range req.Header {
		restyReq.SetHeader(k, v[0])
	}

	restyReq.Method = req.Method
	restyReq.URL = req.URL.String()

	resp, err := restyReq.Send()
	if err != nil {
		return nil, err
	}

	return &http.Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.RawBody(),
		Request:    req,
	}, nil
}
