// Package i18n renders localized replies for coded errors.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"
	i18ncatalog "github.com/louisbranch/roleplay-registry/internal/platform/i18n/catalog"
)

// Namespace is the catalog namespace holding error templates.
const Namespace = "errors"

// Translator localizes one metadata value before it reaches a template. It
// returns value unchanged when it has nothing better.
type Translator func(key, value string) string

// Catalog holds the parsed error templates of one locale.
type Catalog struct {
	raw       map[apperrors.Code]string
	templates map[apperrors.Code]*template.Template
}

// catalogs caches one Catalog per resolved locale.
var catalogs sync.Map

// GetCatalog returns the catalog for locale, falling back to the base locale.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = i18ncatalog.BaseLocale
	}
	resolved, messages := i18ncatalog.Default().NamespaceMessagesWithFallback(requested, Namespace)
	if cached, ok := catalogs.Load(resolved); ok {
		return cached.(*Catalog)
	}
	cached, _ := catalogs.LoadOrStore(resolved, NewCatalog(messages))
	return cached.(*Catalog)
}

// NewCatalog parses messages keyed by error code. A template that fails to
// parse is kept as literal text.
func NewCatalog(messages map[string]string) *Catalog {
	c := &Catalog{
		raw:       make(map[apperrors.Code]string, len(messages)),
		templates: make(map[apperrors.Code]*template.Template, len(messages)),
	}
	for key, text := range messages {
		code := apperrors.Code(key)
		c.raw[code] = text
		if t, err := template.New(key).Option("missingkey=zero").Parse(text); err == nil {
			c.templates[code] = t
		}
	}
	return c
}

// Format renders the template for code with metadata. Unknown codes render as
// the code itself.
func (c *Catalog) Format(code apperrors.Code, metadata map[string]string) string {
	text, ok := c.raw[code]
	if !ok {
		return string(code)
	}
	t, ok := c.templates[code]
	if !ok {
		return text
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return text
	}
	return buf.String()
}

// Render formats err by its code. Errors without a code render as UNKNOWN.
// translate may be nil.
func (c *Catalog) Render(err error, translate Translator) string {
	domainErr, ok := apperrors.As(err)
	if !ok {
		return c.Format(apperrors.CodeUnknown, nil)
	}
	metadata := make(map[string]string, len(domainErr.Metadata))
	for key, value := range domainErr.Metadata {
		if translate != nil {
			value = translate(key, value)
		}
		metadata[key] = value
	}
	return c.Format(domainErr.Code, metadata)
}
