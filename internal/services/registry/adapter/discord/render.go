package discord

import (
	"strconv"
	"strings"

	errori18n "github.com/louisbranch/roleplay-registry/internal/platform/errors/i18n"
	"github.com/louisbranch/roleplay-registry/internal/platform/i18n/catalog"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/entity"
	"golang.org/x/text/message"
)

// renderer localizes replies for one invocation.
type renderer struct {
	locale  string
	printer *message.Printer
	errors  *errori18n.Catalog
}

func newRenderer(locale string) renderer {
	bundle := catalog.Default()
	resolved := bundle.ResolveLocale(locale)
	return renderer{
		locale:  resolved,
		printer: bundle.Printer(resolved),
		errors:  errori18n.GetCatalog(resolved),
	}
}

func (r renderer) text(key string, args ...any) string {
	return r.printer.Sprintf(key, args...)
}

// label returns the catalog value for key, or fallback when it is missing.
func (r renderer) label(key, fallback string) string {
	if value, ok := catalog.Default().Message(r.locale, key); ok {
		return value
	}
	return fallback
}

func (r renderer) status(s entity.Status) string {
	return r.label("core.status."+string(s), string(s))
}

func (r renderer) kind(k string) string {
	return r.label("registry.kind."+k, k)
}

// id renders identifiers without digit grouping.
func id(n int) string {
	return strconv.Itoa(n)
}

func (r renderer) registrationItems(records []entity.Registration) string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, r.text("registry.list.item", id(rec.ID), rec.Name, r.status(rec.Status)))
	}
	return strings.Join(lines, "\n")
}

func (r renderer) contractItems(contracts []entity.Contract) string {
	lines := make([]string, 0, len(contracts))
	for _, c := range contracts {
		lines = append(lines, r.text("registry.contract.item", id(c.ID), c.Business, c.Gang, r.status(c.Status)))
	}
	return strings.Join(lines, "\n")
}

// failure renders err from the errors catalog with localized Kind and Field
// metadata.
func (r renderer) failure(err error) string {
	return r.errors.Render(err, r.metadata)
}

func (r renderer) metadata(key, value string) string {
	switch key {
	case "Kind":
		return r.kind(value)
	case "Field":
		return r.label("registry.field."+value, value)
	}
	return value
}
