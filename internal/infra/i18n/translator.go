package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLang is used when a caller passes an unknown language code.
const DefaultLang = "en"

// Translator resolves message keys to localized strings. One instance holds
// every supported locale; lookups pick the language per call because the
// chat API carries the language with each request.
type Translator struct {
	locales map[string]map[string]string
}

// NewTranslator loads the given locale files from fsys (one yaml per
// language code, e.g. locales/en.yaml).
func NewTranslator(fsys fs.FS, langCodes ...string) (*Translator, error) {
	locales := make(map[string]map[string]string, len(langCodes))
	for _, code := range langCodes {
		filePath := filepath.Join("locales", fmt.Sprintf("%s.yaml", code))
		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
		}
		var translations map[string]string
		if err := yaml.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse translation file %s: %w", filePath, err)
		}
		locales[code] = translations
	}
	if _, ok := locales[DefaultLang]; !ok {
		return nil, fmt.Errorf("default locale %q not loaded", DefaultLang)
	}
	return &Translator{locales: locales}, nil
}

// T translates key for lang, falling back to the default locale and finally
// to the key itself.
func (t *Translator) T(lang, key string, args ...interface{}) string {
	translations, ok := t.locales[lang]
	if !ok {
		translations = t.locales[DefaultLang]
	}
	format, ok := translations[key]
	if !ok {
		format, ok = t.locales[DefaultLang][key]
		if !ok {
			return key
		}
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
