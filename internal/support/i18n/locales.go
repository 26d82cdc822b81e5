package i18n

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var (
	// ErrNoSupportedLocales 表示未配置任何受支持的语言。
	ErrNoSupportedLocales = errors.New("i18n: no supported locales / 未配置受支持的语言")
	// ErrDefaultLocaleUnsupported 表示默认语言不在受支持列表中。
	ErrDefaultLocaleUnsupported = errors.New("i18n: default locale is not supported / 默认语言不在支持列表中")
)

// LocaleSet is the ordered, immutable list of supported locale codes plus the
// process-wide default. Build it once at startup with NewLocaleSet.
type LocaleSet struct {
	codes   []string
	def     string
	byLower map[string]string
	bases   []string
}

// NewLocaleSet validates the configured locales. Codes keep their declared spelling
// (e.g. "pt-BR"), lookups are case-insensitive.
func NewLocaleSet(supported []string, def string) (*LocaleSet, error) {
	if len(supported) == 0 {
		return nil, ErrNoSupportedLocales
	}
	set := &LocaleSet{
		codes:   make([]string, 0, len(supported)),
		byLower: make(map[string]string, len(supported)),
		bases:   make([]string, 0, len(supported)),
	}
	for _, raw := range supported {
		code := strings.TrimSpace(raw)
		if code == "" {
			return nil, fmt.Errorf("i18n: empty locale code in supported list / 语言代码不能为空")
		}
		if _, err := language.Parse(code); err != nil {
			return nil, fmt.Errorf("i18n: invalid locale %q: %w", code, err)
		}
		lower := strings.ToLower(code)
		if _, dup := set.byLower[lower]; dup {
			return nil, fmt.Errorf("i18n: duplicate locale %q / 语言代码重复", code)
		}
		set.byLower[lower] = code
		set.codes = append(set.codes, code)
		set.bases = append(set.bases, baseLanguage(lower))
	}

	canonical, ok := set.byLower[strings.ToLower(strings.TrimSpace(def))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDefaultLocaleUnsupported, def)
	}
	set.def = canonical
	return set, nil
}

// MustLocaleSet panics on invalid input; intended for tests and static defaults.
func MustLocaleSet(supported []string, def string) *LocaleSet {
	set, err := NewLocaleSet(supported, def)
	if err != nil {
		panic(err)
	}
	return set
}

// Supported returns a copy of the supported codes in declared order.
func (s *LocaleSet) Supported() []string {
	return append([]string(nil), s.codes...)
}

// Default returns the default locale code.
func (s *LocaleSet) Default() string {
	return s.def
}

// Contains reports whether code is one of the supported codes exactly as declared.
func (s *LocaleSet) Contains(code string) bool {
	canonical, ok := s.byLower[strings.ToLower(code)]
	return ok && canonical == code
}

// Detect maps client language tags, most preferred first, onto a supported locale.
// Each tag is tried as an exact match, then by its bare base language, then against
// the first supported locale sharing its base language.
func (s *LocaleSet) Detect(tags []string) (string, bool) {
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if code, ok := s.byLower[tag]; ok {
			return code, true
		}
		base := baseLanguage(tag)
		if base == "" {
			continue
		}
		if code, ok := s.byLower[base]; ok {
			return code, true
		}
		for i, candidate := range s.bases {
			if candidate == base {
				return s.codes[i], true
			}
		}
	}
	return "", false
}

// DetectHeader 直接从 Accept-Language 头部检测语言。
func (s *LocaleSet) DetectHeader(header string) (string, bool) {
	return s.Detect(ParseAcceptLanguage(header))
}

// baseLanguage extracts the language subtag; tags x/text rejects fall back to the
// text before the first hyphen.
func baseLanguage(tag string) string {
	if parsed, err := language.Parse(tag); err == nil {
		if base, conf := parsed.Base(); conf == language.Exact {
			return strings.ToLower(base.String())
		}
	}
	head, _, _ := strings.Cut(tag, "-")
	head = strings.ToLower(strings.TrimSpace(head))
	if head == "*" {
		return ""
	}
	return head
}
