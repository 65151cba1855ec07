// Package i18n holds the user-facing message catalogue and language
// negotiation helpers.
package i18n

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Default is the language used when nothing better can be negotiated.
const Default = "sr"

type langKey struct{}

var (
	supported = []string{"sr", "en"}
	tags      = []language.Tag{language.MustParse("sr-Latn"), language.English}
	matcher   = language.NewMatcher(tags)
)

var messages = map[string]map[string]string{
	"sr": {
		"app_title":               "Lokacije",
		"search_placeholder":      "Pretraga...",
		"add_location":            "Dodaj lokaciju",
		"locations_not_found":     "Nije pronađena lokacija",
		"locations_load_failed":   "Nije moguće učitati lokacije.",
		"untitled":                "Bez imena",
		"name":                    "Naziv",
		"address":                 "Adresa",
		"city":                    "Grad",
		"save":                    "Sačuvaj",
		"cancel":                  "Otkaži",
		"delete":                  "Obriši",
		"delete_title":            "Obriši %s",
		"name_city_required":      "Naziv i grad su obavezni.",
		"location_save_failed":    "Neuspešno čuvanje lokacije",
		"location_delete_failed":  "Neuspešno brisanje lokacije",
		"confirm_delete_location": "Da li ste sigurni da želite da obrišete \"%s\"?",
		"info_empty_title":        "Unesi Podatke",
		"info_empty_body":         "Odaberite lokaciju sa leve strane da biste uneli dostave i videli audit log.",
		"add_delivery":            "Dodaj Dostavu",
		"kg_delivered":            "Isporučeno kg",
		"price":                   "Cena (RSD)",
		"date":                    "Datum",
		"add":                     "Dodaj",
		"price_hint":              "Cena se automatski popunjava: %s kg = 1 džak, profit po džaku = %s. Možete ručno promeniti cenu pre dodavanja.",
		"filter":                  "Filter",
		"filter_start":            "Početni datum",
		"filter_end":              "Krajnji datum",
		"apply":                   "Prikaži",
		"reset":                   "Resetuj",
		"total_period":            "Ukupno kg (period):",
		"total_all":               "Ukupno kg (sve):",
		"audit_logs":              "Audit Logs",
		"deliveries_none":         "Nema zabeleženih dostava za ovaj period.",
		"deliveries_load_failed":  "Nije moguće učitati dostave.",
		"price_value":             "Cena: %s",
		"confirm_delete_delivery": "Da li ste sigurni da želite da obrišete ovu dostavu?",
		"select_location_first":   "Odaberite lokaciju prvo.",
		"invalid_kg":              "Unesite validnu količinu (kg).",
		"date_required":           "Unesite datum dostave.",
		"delivery_add_failed":     "Neuspešno dodavanje dostave. Pogledajte log za detalje.",
		"delivery_delete_failed":  "Neuspešno brisanje dostave.",
		"busy":                    "Operacija je već u toku.",
		"export_failed":           "Izvoz nije uspeo.",
		"tui_help":                "↑/↓ pomeri · enter izaberi · / pretraga · a lokacija · n dostava · f filter · r poništi · d obriši lokaciju · x obriši dostavu · tab panel · q izlaz",
		"tui_confirm_hint":        "y = da · n = ne",
		"tui_form_hint":           "tab sledeće polje · enter sačuvaj · esc odustani",
		"invalid_id":              "Neispravan identifikator.",
		"export":                  "Izvoz (xlsx)",
		"required":                "Obavezno",
		"must_be_positive":        "Mora biti veće od nule",
		"invalid_date":            "Neispravan datum",
		"must_not_be_negative":    "Ne sme biti negativno",
		"delivered_at":            "Datum dostave",
		"start":                   "Početni datum",
		"end":                     "Krajnji datum",
	},
	"en": {
		"app_title":               "Locations",
		"search_placeholder":      "Search...",
		"add_location":            "Add location",
		"locations_not_found":     "No location found",
		"locations_load_failed":   "Could not load locations.",
		"untitled":                "Untitled",
		"name":                    "Name",
		"address":                 "Address",
		"city":                    "City",
		"save":                    "Save",
		"cancel":                  "Cancel",
		"delete":                  "Delete",
		"delete_title":            "Delete %s",
		"name_city_required":      "Name and city are required.",
		"location_save_failed":    "Failed to save location",
		"location_delete_failed":  "Failed to delete location",
		"confirm_delete_location": "Are you sure you want to delete \"%s\"?",
		"info_empty_title":        "Enter data",
		"info_empty_body":         "Pick a location on the left to enter deliveries and see the audit log.",
		"add_delivery":            "Add delivery",
		"kg_delivered":            "Kg delivered",
		"price":                   "Price (RSD)",
		"date":                    "Date",
		"add":                     "Add",
		"price_hint":              "Price fills in automatically: %s kg = 1 sack, profit per sack = %s. You can change it before adding.",
		"filter":                  "Filter",
		"filter_start":            "Start date",
		"filter_end":              "End date",
		"apply":                   "Show",
		"reset":                   "Reset",
		"total_period":            "Total kg (period):",
		"total_all":               "Total kg (all):",
		"audit_logs":              "Audit Logs",
		"deliveries_none":         "No deliveries recorded for this period.",
		"deliveries_load_failed":  "Could not load deliveries.",
		"price_value":             "Price: %s",
		"confirm_delete_delivery": "Are you sure you want to delete this delivery?",
		"select_location_first":   "Select a location first.",
		"invalid_kg":              "Enter a valid quantity (kg).",
		"date_required":           "Enter the delivery date.",
		"delivery_add_failed":     "Failed to add delivery. See the log for details.",
		"delivery_delete_failed":  "Failed to delete delivery.",
		"busy":                    "Operation already in progress.",
		"export_failed":           "Export failed.",
		"tui_help":                "↑/↓ move · enter select · / search · a location · n delivery · f filter · r reset · d delete location · x delete delivery · tab pane · q quit",
		"tui_confirm_hint":        "y = yes · n = no",
		"tui_form_hint":           "tab next field · enter save · esc cancel",
		"invalid_id":              "Invalid identifier.",
		"export":                  "Export (xlsx)",
		"required":                "Required",
		"must_be_positive":        "Must be greater than zero",
		"invalid_date":            "Invalid date",
		"must_not_be_negative":    "Must not be negative",
		"delivered_at":            "Delivery date",
		"start":                   "Start date",
		"end":                     "End date",
	},
}

// T returns the message for code in lang, falling back to the default
// language and finally to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[Default][code]; ok {
		return s
	}
	return code
}

// Tf formats the message for code with args.
func Tf(lang, code string, args ...any) string {
	return fmt.Sprintf(T(lang, code), args...)
}

// Supported reports whether lang has a catalogue.
func Supported(lang string) bool {
	_, ok := messages[strings.ToLower(lang)]
	return ok
}

// DetectLanguage picks the best supported language from an Accept-Language
// header value.
func DetectLanguage(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(prefs...)
	if conf == language.No {
		return Default
	}
	return supported[idx]
}

// Tag returns the x/text language tag used for number formatting.
func Tag(lang string) language.Tag {
	for i, code := range supported {
		if code == lang {
			return tags[i]
		}
	}
	return tags[0]
}

// WithLang stores lang in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the language stored by WithLang, or Default.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return Default
}
