// Package templates renders the consent UI pages.
package templates

import (
	"embed"
	"html/template"
	"io"

	"github.com/wrale/oidc-consent-proxy/internal/consent"
	"github.com/wrale/oidc-consent-proxy/internal/grants"
)

//go:embed html/*.html
var content embed.FS

// Templates manages the HTML templates.
type Templates struct {
	consent  *template.Template
	device   *template.Template
	status   *template.Template
	grants   *template.Template
	redirect *template.Template
	error    *template.Template
}

// LoadTemplates loads and parses all HTML templates.
func LoadTemplates() (*Templates, error) {
	t := &Templates{}

	pages := []struct {
		dst  **template.Template
		file string
	}{
		{&t.consent, "html/consent.html"},
		{&t.device, "html/device.html"},
		{&t.status, "html/status.html"},
		{&t.grants, "html/grants.html"},
		{&t.redirect, "html/redirect.html"},
		{&t.error, "html/error.html"},
	}

	for _, page := range pages {
		tmpl, err := template.ParseFS(content, page.file, "html/layout.html")
		if err != nil {
			return nil, err
		}
		*page.dst = tmpl
	}

	return t, nil
}

// ConsentData holds data for the consent form, shared by the interactive and
// device flows.
type ConsentData struct {
	*consent.ViewModel
	CSRFToken string
}

// RenderConsent renders the consent form.
func (t *Templates) RenderConsent(w io.Writer, data ConsentData) error {
	return t.consent.ExecuteTemplate(w, "layout", data)
}

// DeviceData holds data for the user-code capture page.
type DeviceData struct {
	PrefilledCode string
	CSRFToken     string
	Error         string
}

// RenderDevice renders the user-code capture page.
func (t *Templates) RenderDevice(w io.Writer, data DeviceData) error {
	return t.device.ExecuteTemplate(w, "layout", data)
}

// StatusData holds data for the device-flow status page.
type StatusData struct {
	Title   string
	Message string
}

// RenderStatus renders the device-flow success or denied page.
func (t *Templates) RenderStatus(w io.Writer, data StatusData) error {
	return t.status.ExecuteTemplate(w, "layout", data)
}

// GrantsData holds data for the grant inventory page.
type GrantsData struct {
	Grants    []grants.Summary
	CSRFToken string
}

// RenderGrants renders the grant inventory page.
func (t *Templates) RenderGrants(w io.Writer, data GrantsData) error {
	return t.grants.ExecuteTemplate(w, "layout", data)
}

// RedirectData holds data for the native-client loading page.
type RedirectData struct {
	RedirectURL string
}

// RenderRedirect renders the transitional loading page shown before handing
// the authorization result to a native client.
func (t *Templates) RenderRedirect(w io.Writer, data RedirectData) error {
	return t.redirect.ExecuteTemplate(w, "layout", data)
}

// ErrorData holds data for the error page.
type ErrorData struct {
	Title   string
	Message string
}

// RenderError renders the terminal error page.
func (t *Templates) RenderError(w io.Writer, data ErrorData) error {
	return t.error.ExecuteTemplate(w, "layout", data)
}
