package mwapi

// outcome tags one classified API exchange. Classification is pure: the same
// response always yields the same outcome, and it runs on success paths too,
// because the API returns HTTP 200 with embedded business errors.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeBadToken
	outcomeAssertUserFailed
	outcomeAPIError
	outcomeTransport
)

// classifyResponse inspects a decoded response and returns its outcome plus
// the typed error for every non-success case.
func classifyResponse(resp *Response) (outcome, *APIError) {
	errs := resp.Errors()
	apiErr := newAPIError(errs, resp)

	if apiErr.isBadToken() {
		return outcomeBadToken, apiErr
	}
	if apiErr.isAssertUserFailed() {
		return outcomeAssertUserFailed, apiErr
	}
	if len(errs) > 0 {
		return outcomeAPIError, apiErr
	}
	return outcomeSuccess, nil
}

// classifyError re-derives the outcome from an error returned by the gateway.
// Gateways surface *APIError when ThrowOnAPIError is set, so token retry
// logic must classify both the response and the error path identically.
func classifyError(err error) outcome {
	switch e := err.(type) {
	case nil:
		return outcomeSuccess
	case *APIError:
		if e.isBadToken() {
			return outcomeBadToken
		}
		if e.isAssertUserFailed() {
			return outcomeAssertUserFailed
		}
		return outcomeAPIError
	case *TransportError:
		return outcomeTransport
	default:
		return outcomeTransport
	}
}
