package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

func formatHeaders(headers http.Header) string {
	var out strings.Builder
	for k, vals := range headers {
		for _, v := range vals {
			out.WriteString(fmt.Sprintf("%s: %s\n", k, v))
		}
	}
	// to trim the last newline off the end of the headers
	return strings.TrimSuffix(out.String(), "\n")
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	readBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(readBody)
}

// 1: request method
// 2: request url
// 3: request headers in ("Key: Value" format)
// 4: request body
// 5: response status
// 6: response url
// 7: response headers in ("Key: Value" format)
// 8: response body
const messageInfoTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s %s

%s

%s`

func requestUrl(req *resty.Request) string {
	if req.RawRequest != nil && req.RawRequest.URL != nil {
		return req.RawRequest.URL.String()
	}
	return req.URL
}

func formatHttpMessage(res *resty.Response) string {
	var requestHeaders string
	var rawRequest *http.Request
	if res.Request.RawRequest != nil {
		rawRequest = res.Request.RawRequest
		requestHeaders = formatHeaders(rawRequest.Header)
	}
	responseHeaders := formatHeaders(res.Header())

	responseUrl := requestUrl(res.Request)
	if res.RawResponse != nil {
		redirected, err := res.RawResponse.Location()
		if err == nil {
			responseUrl = redirected.String()
		}
	}

	return fmt.Sprintf(
		messageInfoTemplate,

		res.Request.Method, requestUrl(res.Request),
		requestHeaders,
		formatRequestBody(rawRequest),

		strconv.Itoa(res.StatusCode()), responseUrl,
		responseHeaders,
		res.String(),
	)
}

// 1: request method
// 2: request url
// 3: request headers in ("Key: Value" format)
// 4: error
const errorInfoTemplate = `---- REQUEST ----

%s %s

%s

---- ERROR ----

%s`

func formatHttpError(req *resty.Request, err error) string {
	return fmt.Sprintf(
		errorInfoTemplate,
		req.Method, requestUrl(req),
		formatHeaders(req.Header),
		err.Error(),
	)
}
