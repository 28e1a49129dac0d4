// Package mwapi is a MediaWiki Action API client built around the token
// lifecycle: action tokens are cached, attached to writes, and transparently
// re-fetched when the server rejects them as stale, with a hard retry bound.
//
// A minimal edit session:
//
//	client, err := mwapi.NewClient("https://example.org/w/api.php")
//	if err != nil {
//		...
//	}
//	if _, err := client.Login(ctx, "BotName@tool", password); err != nil {
//		...
//	}
//	resp, err := client.PostWithEditToken(ctx, mwapi.Params{
//		"action": "edit",
//		"title":  "Sandbox",
//		"text":   "Hello",
//	})
//
// After a successful Login the client keeps the credentials, asserts the
// identity on every request, and silently logs back in (a bounded number of
// times) when the wiki drops the session.
//
// Errors are typed and match package sentinels through errors.Is:
// ErrTokenRetryLimitExceeded when the server never accepts a token,
// ErrLoginFailed for rejected credentials, ErrTransport for failures below
// the API layer.
package mwapi
