// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// userAgent is sent with every request.
const userAgent = "fluxdl/1"

// buildHTTPClient creates the download client.
//
// There is no client-level timeout: bodies of many gigabytes are normal,
// so the per-download deadline lives on the request context instead.
func buildHTTPClient(cfg Settings) *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	if cfg.Insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: tr}
}

// addHeaders sets the user-agent header on a request.
func addHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
}

// rebaseURL moves raw onto the scheme and host of endpoint. An endpoint
// path is prefixed to the artifact path; the query is kept. An empty
// endpoint returns raw unchanged.
func rebaseURL(raw, endpoint string) (string, error) {
	if endpoint == "" {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	ep, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if ep.Scheme == "" || ep.Host == "" {
		return "", fmt.Errorf("endpoint %q must include scheme and host", endpoint)
	}
	u.Scheme = ep.Scheme
	u.Host = ep.Host
	u.Path = strings.TrimSuffix(ep.Path, "/") + u.Path
	u.RawPath = ""
	return u.String(), nil
}
