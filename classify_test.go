package mwapi

import (
	"errors"
	"net/http"
	"testing"
)

func responseFrom(t *testing.T, body string) *Response {
	t.Helper()
	resp, err := newResponse(http.StatusOK, http.Header{}, []byte(body))
	if err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return resp
}

func TestClassifyCleanResponse(t *testing.T) {
	resp := responseFrom(t, `{"query":{"pages":[]}}`)
	oc, apiErr := classifyResponse(resp)
	if oc != outcomeSuccess || apiErr != nil {
		t.Fatalf("expected success, got %v / %v", oc, apiErr)
	}
}

func TestClassifyBadTokenFromErrorsArray(t *testing.T) {
	resp := responseFrom(t, `{"errors":[{"code":"badtoken","text":"Invalid CSRF token."}]}`)
	oc, apiErr := classifyResponse(resp)
	if oc != outcomeBadToken {
		t.Fatalf("expected bad token, got %v", oc)
	}
	if !errors.Is(apiErr, ErrBadToken) {
		t.Fatalf("expected ErrBadToken match, got %v", apiErr)
	}
}

func TestClassifyBadTokenFromLegacySingularError(t *testing.T) {
	resp := responseFrom(t, `{"error":{"code":"badtoken","info":"Invalid token"}}`)
	oc, apiErr := classifyResponse(resp)
	if oc != outcomeBadToken {
		t.Fatalf("expected bad token, got %v", oc)
	}
	if apiErr.Message != "Invalid token" {
		t.Fatalf("legacy info field not normalized: %q", apiErr.Message)
	}
}

func TestClassifyLoginNeedTokenAsBadToken(t *testing.T) {
	for _, result := range []string{"NeedToken", "WrongToken"} {
		resp := responseFrom(t, `{"login":{"result":"`+result+`"}}`)
		oc, _ := classifyResponse(resp)
		if oc != outcomeBadToken {
			t.Fatalf("login result %s must classify as bad token, got %v", result, oc)
		}
	}
}

func TestClassifyAssertUserFailed(t *testing.T) {
	for _, code := range []string{"assertuserfailed", "assertnameduserfailed"} {
		resp := responseFrom(t, `{"errors":[{"code":"`+code+`","text":"assertion failed"}]}`)
		oc, apiErr := classifyResponse(resp)
		if oc != outcomeAssertUserFailed {
			t.Fatalf("code %s must classify as assert failure, got %v", code, oc)
		}
		if !errors.Is(apiErr, ErrAssertUserFailed) {
			t.Fatalf("expected ErrAssertUserFailed match, got %v", apiErr)
		}
	}
}

func TestClassifyOrdinaryAPIError(t *testing.T) {
	resp := responseFrom(t, `{"errors":[{"code":"missingtitle","text":"The page does not exist."}]}`)
	oc, apiErr := classifyResponse(resp)
	if oc != outcomeAPIError {
		t.Fatalf("expected api error, got %v", oc)
	}
	if apiErr.Code != "missingtitle" || errors.Is(apiErr, ErrBadToken) {
		t.Fatalf("unexpected classification: %v", apiErr)
	}
}

func TestClassifyErrorMirrorsResponseClassification(t *testing.T) {
	resp := responseFrom(t, `{"errors":[{"code":"badtoken","text":"x"}]}`)
	_, apiErr := classifyResponse(resp)
	if classifyError(apiErr) != outcomeBadToken {
		t.Fatal("error path and response path disagree on badtoken")
	}
	if classifyError(&TransportError{Status: 503}) != outcomeTransport {
		t.Fatal("transport error misclassified")
	}
	if classifyError(nil) != outcomeSuccess {
		t.Fatal("nil error misclassified")
	}
}

func TestResponseErrorTextFallbackOrder(t *testing.T) {
	resp := responseFrom(t, `{"errors":[{"code":"x","info":"from info"},{"code":"y","*":"from star"}]}`)
	errs := resp.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}
	if errs[0].Text != "from info" || errs[1].Text != "from star" {
		t.Fatalf("fallback order broken: %+v", errs)
	}
}

func TestLoginReasonAcceptsBareString(t *testing.T) {
	resp := responseFrom(t, `{"login":{"result":"Failed","reason":"Incorrect password"}}`)
	login := resp.Login()
	if login == nil || login.Reason == nil || login.Reason.Text != "Incorrect password" {
		t.Fatalf("legacy string reason not decoded: %+v", login)
	}
}

func TestNonJSONBodyFailsDecoding(t *testing.T) {
	if _, err := newResponse(http.StatusOK, http.Header{}, []byte("<html></html>")); err == nil {
		t.Fatal("expected decode error for non-JSON body")
	}
}
