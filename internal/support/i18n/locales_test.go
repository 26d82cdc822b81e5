package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocaleSet_Validation(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := NewLocaleSet(nil, "en")
		assert.ErrorIs(t, err, ErrNoSupportedLocales)
	})

	t.Run("DefaultNotSupported", func(t *testing.T) {
		_, err := NewLocaleSet([]string{"en", "fr"}, "de")
		assert.ErrorIs(t, err, ErrDefaultLocaleUnsupported)
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := NewLocaleSet([]string{"pt-BR", "pt-br"}, "pt-BR")
		assert.Error(t, err)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := NewLocaleSet([]string{"en", "not a tag"}, "en")
		assert.Error(t, err)
	})

	t.Run("DefaultCanonicalized", func(t *testing.T) {
		set, err := NewLocaleSet([]string{"en", "pt-BR"}, "pt-br")
		require.NoError(t, err)
		assert.Equal(t, "pt-BR", set.Default())
		assert.Equal(t, []string{"en", "pt-BR"}, set.Supported())
	})
}

func TestLocaleSet_Contains(t *testing.T) {
	set := MustLocaleSet([]string{"en", "pt-BR"}, "en")

	assert.True(t, set.Contains("en"))
	assert.True(t, set.Contains("pt-BR"))
	assert.False(t, set.Contains("pt-br"))
	assert.False(t, set.Contains("xx"))
	assert.False(t, set.Contains(""))
}

func TestLocaleSet_Detect(t *testing.T) {
	tests := []struct {
		name      string
		supported []string
		tags      []string
		want      string
		wantOK    bool
	}{
		{name: "exact", supported: []string{"en", "fr"}, tags: []string{"fr"}, want: "fr", wantOK: true},
		{name: "exact keeps declared casing", supported: []string{"en", "pt-BR"}, tags: []string{"pt-br"}, want: "pt-BR", wantOK: true},
		{name: "base language", supported: []string{"en", "fr"}, tags: []string{"en-gb"}, want: "en", wantOK: true},
		{name: "region fallback", supported: []string{"en", "pt-BR"}, tags: []string{"pt-pt"}, want: "pt-BR", wantOK: true},
		{name: "region fallback uses declared order", supported: []string{"en", "es-MX", "es-AR"}, tags: []string{"es-es"}, want: "es-MX", wantOK: true},
		{name: "no match", supported: []string{"en", "fr"}, tags: []string{"pt-br"}, wantOK: false},
		{name: "empty tags", supported: []string{"en"}, tags: nil, wantOK: false},
		{name: "first matching tag wins", supported: []string{"en", "fr"}, tags: []string{"de", "fr-ca", "en"}, want: "fr", wantOK: true},
		{name: "wildcard ignored", supported: []string{"en", "fr"}, tags: []string{"*"}, wantOK: false},
		{name: "private use tag", supported: []string{"en"}, tags: []string{"x-klingon", "en-au"}, want: "en", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := MustLocaleSet(tt.supported, tt.supported[0])
			got, ok := set.Detect(tt.tags)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocaleSet_DetectHeader(t *testing.T) {
	set := MustLocaleSet([]string{"en", "fr"}, "en")

	got, ok := set.DetectHeader("de-DE, fr-CA;q=0.8, en;q=0.9")
	require.True(t, ok)
	assert.Equal(t, "en", got)

	_, ok = set.DetectHeader("")
	assert.False(t, ok)
}
