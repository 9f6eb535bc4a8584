package locale

import "errors"

var (
	// ErrMissingTranslation is passed to the missing key handler when a path
	// resolves nowhere. Lookups never return it.
	ErrMissingTranslation = errors.New("locale: missing translation")

	ErrUnsupportedLanguage = errors.New("locale: unsupported language")
	ErrInvalidLanguage     = errors.New("locale: invalid language code")
	ErrInvalidDefaults     = errors.New("locale: invalid defaults file")
	ErrNoPreference        = errors.New("locale: no saved language preference")
	ErrPreferenceStore     = errors.New("locale: preference store failed")
)
