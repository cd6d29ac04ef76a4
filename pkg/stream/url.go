package stream

import (
	"net/url"

	"github.com/agentstation/learnstream/pkg/constants"
)

// WithCredential returns rawURL with credential appended as the token query
// parameter. The url is returned unchanged when the credential is empty, the
// url already carries a token, or the url cannot be parsed.
func WithCredential(rawURL, credential string) string {
	if credential == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Query().Has(constants.TokenQueryParam) {
		return rawURL
	}

	param := constants.TokenQueryParam + "=" + url.QueryEscape(credential)
	if u.RawQuery == "" {
		u.RawQuery = param
	} else {
		u.RawQuery += "&" + param
	}
	return u.String()
}

// redact masks the credential in a stream url for logging.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if !q.Has(constants.TokenQueryParam) {
		return rawURL
	}
	q.Set(constants.TokenQueryParam, "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
