// 文件路径: internal/service/preference_codec.go
// 模块说明: 这是 internal 模块里的 preference_codec 逻辑，负责偏好的解析、部分更新校验以及默认值生成。
package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/creamcroissant/xpref/internal/support/i18n"
)

// Preference is the resolved per-client record.
type Preference struct {
	Locale string `json:"locale" validate:"required,supported_locale"`
}

// PreferencePatch is a partial Preference. A nil field leaves the current value untouched.
type PreferencePatch struct {
	Locale *string `json:"locale,omitempty" validate:"omitempty,supported_locale"`
}

// Apply overwrites the fields present in the patch onto base.
func (p PreferencePatch) Apply(base Preference) Preference {
	merged := base
	if p.Locale != nil {
		merged.Locale = *p.Locale
	}
	return merged
}

// patchFields 是部分更新允许出现的字段集合。
var patchFields = map[string]struct{}{
	"locale": {},
}

// PreferenceCodec validates preferences against the configured locale set.
type PreferenceCodec struct {
	locales  *i18n.LocaleSet
	validate *validator.Validate
}

// NewPreferenceCodec 创建编解码器；locales 在进程生命周期内不可变。
func NewPreferenceCodec(locales *i18n.LocaleSet) *PreferenceCodec {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("supported_locale", func(fl validator.FieldLevel) bool {
		return locales.Contains(fl.Field().String())
	})
	return &PreferenceCodec{locales: locales, validate: v}
}

// Locales returns the locale set the codec validates against.
func (c *PreferenceCodec) Locales() *i18n.LocaleSet {
	return c.locales
}

// Parse decodes a full preference. Anything missing, malformed or invalid is
// reported as absent; unknown fields are ignored.
func (c *PreferenceCodec) Parse(data []byte) (*Preference, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	var pref Preference
	if err := json.Unmarshal(data, &pref); err != nil {
		return nil, false
	}
	if err := c.validate.Struct(pref); err != nil {
		return nil, false
	}
	return &pref, true
}

// ParsePatch decodes a client-submitted partial preference. It is strict: the body
// must be exactly one JSON object, and unknown fields, explicit nulls, wrong types and
// unsupported values are all rejected with a *PreferenceValidationError.
func (c *PreferenceCodec) ParsePatch(data []byte) (PreferencePatch, error) {
	var patch PreferencePatch
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return patch, invalidPreference("", "body is empty")
	}
	if data[0] != '{' {
		return patch, invalidPreference("", "body must be a JSON object")
	}

	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return patch, invalidPreference("", "malformed JSON")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return patch, invalidPreference("", "unexpected data after JSON object")
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := patchFields[key]; !ok {
			return patch, invalidPreference(key, "unknown field")
		}
		if bytes.Equal(bytes.TrimSpace(raw[key]), []byte("null")) {
			return patch, invalidPreference(key, "must not be null")
		}
	}

	if err := json.Unmarshal(data, &patch); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return PreferencePatch{}, invalidPreference(typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type.Kind()))
		}
		return PreferencePatch{}, invalidPreference("", "malformed JSON")
	}

	if err := c.validate.Struct(patch); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return PreferencePatch{}, invalidPreference(fe.Field(), c.describe(fe))
		}
		return PreferencePatch{}, invalidPreference("", err.Error())
	}
	return patch, nil
}

// GenerateDefault derives a preference from the Accept-Language header, falling back
// to the default locale.
func (c *PreferenceCodec) GenerateDefault(acceptLanguage string) Preference {
	if code, ok := c.locales.DetectHeader(acceptLanguage); ok {
		return Preference{Locale: code}
	}
	return Preference{Locale: c.locales.Default()}
}

func (c *PreferenceCodec) describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "supported_locale":
		return fmt.Sprintf("unsupported locale %q (supported: %s)", fe.Value(), strings.Join(c.locales.Supported(), ", "))
	case "required":
		return "is required"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
