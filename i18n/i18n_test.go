package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("fr-FR,es-PE;q=0.8") != "es" {
		t.Fatalf("expected es from second tag")
	}
	if DetectLanguage("fr-FR,fr;q=0.8") != "es" {
		t.Fatalf("expected es fallback")
	}
	if DetectLanguage("") != "es" {
		t.Fatalf("expected default es")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("es", "required") != "Obligatorio" {
		t.Fatalf("expected Obligatorio")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to es translation
	if T("fr", "empty_cart") != "El carrito está vacío" {
		t.Fatalf("expected es fallback for fr lang")
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for code := range catalogs[Default] {
		if _, ok := catalogs["en"][code]; !ok {
			t.Errorf("en missing %q", code)
		}
	}
	for code := range catalogs["en"] {
		if _, ok := catalogs[Default][code]; !ok {
			t.Errorf("es missing %q", code)
		}
	}
}

func TestLangContext(t *testing.T) {
	if LangFrom(context.Background()) != Default {
		t.Fatalf("expected default language")
	}
	if LangFrom(WithLang(context.Background(), "en")) != "en" {
		t.Fatalf("expected en from context")
	}
}
