package canvas

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "canvasgrab/pkg/errors"
)

// Provider identifies the authentication provider behind the login page
type Provider string

const (
	ProviderCanvas    Provider = "canvas"
	ProviderMicrosoft Provider = "microsoft"
	ProviderGoogle    Provider = "google"
	ProviderUnknown   Provider = "unknown"
)

// DetectProvider inspects a login page and identifies the provider
func DetectProvider(doc *goquery.Document) Provider {
	switch {
	case hasLoginForm(doc):
		return ProviderCanvas
	case doc.Find("#i0116, input[name='loginfmt']").Length() > 0:
		return ProviderMicrosoft
	case doc.Find("#identifierId").Length() > 0:
		return ProviderGoogle
	case doc.Find("form input[type='password']").Length() > 0:
		// Some institutions theme the native form beyond recognition;
		// a plain password form is still worth submitting.
		return ProviderCanvas
	default:
		return ProviderUnknown
	}
}

// Login authenticates the session with the native Canvas login form.
// Federated providers (Microsoft, Google) require an interactive browser
// flow and are rejected with an auth error.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errs.New(errs.ErrorTypeAuth, "username and password are required")
	}

	loginURL := LoginURL(c.base)
	doc, _, err := c.getDocument(ctx, loginURL)
	if err != nil {
		return err
	}

	switch provider := DetectProvider(doc); provider {
	case ProviderCanvas:
		// proceed
	case ProviderMicrosoft, ProviderGoogle:
		return errs.Newf(errs.ErrorTypeAuth,
			"this Canvas instance uses federated %s login, which is not supported; use a native Canvas account", provider)
	default:
		return errs.New(errs.ErrorTypeAuth, "could not find a username/password form on the login page")
	}

	form := map[string]string{
		"pseudonym_session[unique_id]": username,
		"pseudonym_session[password]":  password,
	}
	if token, ok := doc.Find("input[name='authenticity_token']").First().Attr("value"); ok {
		form["authenticity_token"] = token
	}

	c.pacer.Wait()
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(loginURL)
	if err != nil {
		return classifyTransportError(loginURL, err, errs.ErrorTypePageLoadTimeout)
	}
	if res.StatusCode() != 200 {
		return errs.FromStatusCode(res.StatusCode(), "POST "+loginURL)
	}

	resultDoc, err := goquery.NewDocumentFromReader(strings.NewReader(string(res.Body())))
	if err != nil {
		return errs.Wrap(errs.ErrorTypeParsing, "failed to parse login response", err)
	}

	c.snaps.Snapshot("login_result", res.Body())

	if hasLoginForm(resultDoc) {
		msg := strings.TrimSpace(resultDoc.Find(".error_text, .ic-flash-error").First().Text())
		if msg == "" {
			msg = "login rejected, check username and password"
		}
		return errs.New(errs.ErrorTypeAuth, msg)
	}

	c.loggedIn = true
	c.log.InfoWithFields("logged in", map[string]interface{}{
		"canvas": c.base.Host,
		"user":   username,
	})
	return nil
}
