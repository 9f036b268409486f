package render

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-hydrate/pkg/vm"
)

// Translator resolves localized messages.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

func (f TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return f(locale, key, args...)
}

// MissingTranslationHandler produces the text used when a key has no
// translation. err is ErrMissingTranslator when no Translator is configured.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	if fallback, ok := helperArgs(args).defaultText(); ok {
		return fallback
	}
	return key
}

type helperArgs []any

func (a helperArgs) defaultText() (string, bool) {
	for _, arg := range a {
		if m, ok := arg.(map[string]any); ok {
			if s := strings.TrimSpace(text(m["default"])); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// I18nConfig configures the translation helpers.
type I18nConfig struct {
	// Locale is used when a call does not name one.
	Locale string
	// LocaleKey selects the key read from a map or struct passed as the
	// locale source. Defaults to "locale".
	LocaleKey string
	// FuncName names the translate helper. Defaults to "t".
	FuncName string
	// OnMissing controls the text returned for missing translations.
	OnMissing MissingTranslationHandler
}

// I18nHelpers returns the translation helpers:
//
//	t key locale=src default="..." ...
//	current_locale src
//
// The locale source can be a locale string or a map or struct holding one
// under cfg.LocaleKey. Remaining named arguments are passed to the
// translator as a single map.
func I18nHelpers(t Translator, cfg I18nConfig) map[string]vm.Helper {
	localeKey := strings.TrimSpace(cfg.LocaleKey)
	if localeKey == "" {
		localeKey = "locale"
	}
	name := strings.TrimSpace(cfg.FuncName)
	if name == "" {
		name = "t"
	}
	onMissing := cfg.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}

	locale := func(args vm.Arguments) string {
		if src, ok := args.Named["locale"]; ok {
			if resolved := resolveLocale(src, localeKey); resolved != "" {
				return resolved
			}
		}
		return cfg.Locale
	}

	return map[string]vm.Helper{
		name: func(args vm.Arguments) (any, error) {
			key := strings.TrimSpace(text(args.At(0)))
			if key == "" {
				return "", nil
			}
			loc := locale(args)
			params := translationParams(args)
			if t == nil {
				return onMissing(loc, key, params, ErrMissingTranslator), nil
			}
			msg, err := t.Translate(loc, key, params...)
			if err != nil || strings.TrimSpace(msg) == "" {
				return onMissing(loc, key, params, err), nil
			}
			return msg, nil
		},
		"current_locale": func(args vm.Arguments) (any, error) {
			if src := args.At(0); src != nil {
				return resolveLocale(src, localeKey), nil
			}
			return cfg.Locale, nil
		},
	}
}

func translationParams(args vm.Arguments) []any {
	var params []any
	if len(args.Positional) > 1 {
		params = append(params, args.Positional[1:]...)
	}
	named := make(map[string]any, len(args.Named))
	for key, value := range args.Named {
		if key == "locale" {
			continue
		}
		named[key] = value
	}
	if len(named) > 0 {
		params = append(params, named)
	}
	return params
}

func resolveLocale(src any, key string) string {
	if src == nil {
		return ""
	}
	if str, ok := src.(string); ok {
		return str
	}
	if key == "" {
		return ""
	}

	switch data := src.(type) {
	case map[string]any:
		if v, ok := data[key]; ok {
			if str, ok := v.(string); ok {
				return str
			}
			return strings.TrimSpace(fmt.Sprint(v))
		}
		return ""
	case map[string]string:
		return data[key]
	}

	value := reflect.ValueOf(src)
	for value.IsValid() && value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return ""
		}
		value = value.Elem()
	}
	if !value.IsValid() {
		return ""
	}

	switch value.Kind() {
	case reflect.Struct:
		field := value.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, key)
		})
		if field.IsValid() && field.Kind() == reflect.String {
			return field.String()
		}
	case reflect.Map:
		if value.Type().Key().Kind() == reflect.String {
			val := value.MapIndex(reflect.ValueOf(key))
			if val.IsValid() && val.Kind() == reflect.String {
				return val.String()
			}
		}
	}
	return ""
}
