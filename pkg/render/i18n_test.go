package render_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-hydrate/pkg/render"
	"github.com/goliatone/go-hydrate/pkg/vm"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(locale string, key string, _ ...any) (string, error) {
	if msg, ok := t[locale+":"+key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func call(t *testing.T, helper vm.Helper, args vm.Arguments) any {
	t.Helper()
	got, err := helper(args)
	if err != nil {
		t.Fatalf("helper: %v", err)
	}
	return got
}

func TestI18nHelpers_Translate(t *testing.T) {
	helpers := render.I18nHelpers(stubTranslator{
		"en:greeting": "Hello",
		"es:greeting": "Hola",
	}, render.I18nConfig{Locale: "en"})

	translate := helpers["t"]
	if got := call(t, translate, vm.Arguments{Positional: []any{"greeting"}}); got != "Hello" {
		t.Fatalf("default locale: got %v", got)
	}

	user := struct{ Locale string }{Locale: "es"}
	got := call(t, translate, vm.Arguments{
		Positional: []any{"greeting"},
		Named:      map[string]any{"locale": user},
	})
	if got != "Hola" {
		t.Fatalf("struct locale: got %v", got)
	}

	got = call(t, translate, vm.Arguments{
		Positional: []any{"farewell"},
		Named:      map[string]any{"default": "Bye"},
	})
	if got != "Bye" {
		t.Fatalf("missing key should use default, got %v", got)
	}
	if got := call(t, translate, vm.Arguments{Positional: []any{"farewell"}}); got != "farewell" {
		t.Fatalf("missing key without default should echo key, got %v", got)
	}
}

func TestI18nHelpers_MissingTranslator(t *testing.T) {
	var gotErr error
	helpers := render.I18nHelpers(nil, render.I18nConfig{
		FuncName: "translate",
		OnMissing: func(_ string, key string, _ []any, err error) string {
			gotErr = err
			return "?" + key
		},
	})

	if got := call(t, helpers["translate"], vm.Arguments{Positional: []any{"title"}}); got != "?title" {
		t.Fatalf("got %v", got)
	}
	if !errors.Is(gotErr, render.ErrMissingTranslator) {
		t.Fatalf("expected ErrMissingTranslator, got %v", gotErr)
	}
}

func TestI18nHelpers_CurrentLocale(t *testing.T) {
	helpers := render.I18nHelpers(nil, render.I18nConfig{Locale: "fr"})
	current := helpers["current_locale"]

	if got := call(t, current, vm.Arguments{}); got != "fr" {
		t.Fatalf("configured locale: got %v", got)
	}
	if got := call(t, current, vm.Arguments{Positional: []any{map[string]any{"locale": "de"}}}); got != "de" {
		t.Fatalf("map locale: got %v", got)
	}
}
