package i18n

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{name: "empty", header: "", want: nil},
		{name: "whitespace", header: "   ", want: nil},
		{name: "single", header: "en-US", want: []string{"en-us"}},
		{name: "descending quality", header: "en-GB;q=0.5, fr;q=0.9", want: []string{"fr", "en-gb"}},
		{name: "implicit quality wins", header: "fr-CA;q=0.8, en;q=0.9, es", want: []string{"es", "en", "fr-ca"}},
		{name: "ties keep header order", header: "de, nl, it;q=0.2, sv", want: []string{"de", "nl", "sv", "it"}},
		{name: "spaces around params", header: "ja ; q=0.3 ,ko; q = 0.7", want: []string{"ko", "ja"}},
		{name: "empty entries skipped", header: ",, en ,;q=0.5", want: []string{"en"}},
		{name: "wildcard kept", header: "*;q=0.1, en", want: []string{"en", "*"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAcceptLanguage(tt.header))
		})
	}
}

func TestParseWeightedTags_MalformedQuality(t *testing.T) {
	t.Run("NonNumeric", func(t *testing.T) {
		tags := ParseWeightedTags("fr;q=abc, en;q=0.4")
		assert.Equal(t, []WeightedTag{{Tag: "fr", Quality: 1}, {Tag: "en", Quality: 0.4}}, tags)
	})

	t.Run("NaN", func(t *testing.T) {
		tags := ParseWeightedTags("fr;q=NaN, en;q=0.4")
		assert.Equal(t, "fr", tags[0].Tag)
		assert.Equal(t, 1.0, tags[0].Quality)
	})

	t.Run("Clamped", func(t *testing.T) {
		tags := ParseWeightedTags("fr;q=7, en;q=-2")
		assert.Equal(t, []WeightedTag{{Tag: "fr", Quality: 1}, {Tag: "en", Quality: 0}}, tags)
	})

	t.Run("EmptyQuality", func(t *testing.T) {
		tags := ParseWeightedTags("fr;q=, en;q=0.5")
		assert.Equal(t, "fr", tags[0].Tag)
		assert.Equal(t, 1.0, tags[0].Quality)
	})
}

func TestParseWeightedTags_OversizedHeader(t *testing.T) {
	filler := strings.Repeat("x", maxAcceptLanguageLength-3)

	t.Run("DropsPartialTrailingEntry", func(t *testing.T) {
		header := filler + ",fr-ca"
		tags := ParseAcceptLanguage(header)
		assert.Equal(t, []string{filler}, tags)

		set := MustLocaleSet([]string{"en", "fr"}, "en")
		code, ok := set.DetectHeader(header)
		assert.False(t, ok)
		assert.NotEqual(t, "fr", code)
	})

	t.Run("KeepsEntryEndingAtLimit", func(t *testing.T) {
		header := filler + ",fr,de"
		assert.Equal(t, []string{filler, "fr"}, ParseAcceptLanguage(header))
	})

	t.Run("SingleHugeEntry", func(t *testing.T) {
		assert.Empty(t, ParseAcceptLanguage(strings.Repeat("y", maxAcceptLanguageLength+10)))
	})
}
