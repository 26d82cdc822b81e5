package i18n

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// maxAcceptLanguageLength bounds the header we are willing to scan.
const maxAcceptLanguageLength = 4096

// WeightedTag 是 Accept-Language 中的一项：语言标签及其 q 值。
type WeightedTag struct {
	Tag     string
	Quality float64
}

// ParseWeightedTags splits an Accept-Language header into lowercase tags ordered by
// descending quality. Entries with equal quality keep their header order.
// A quality that cannot be parsed keeps the default weight of 1.0.
func ParseWeightedTags(header string) []WeightedTag {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	if len(header) > maxAcceptLanguageLength {
		header = truncateEntries(header, maxAcceptLanguageLength)
	}

	entries := strings.Split(header, ",")
	tags := make([]WeightedTag, 0, len(entries))
	for _, entry := range entries {
		tagPart, params, _ := strings.Cut(entry, ";")
		tag := strings.ToLower(strings.TrimSpace(tagPart))
		if tag == "" {
			continue
		}
		tags = append(tags, WeightedTag{Tag: tag, Quality: parseQuality(params)})
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Quality > tags[j].Quality
	})
	return tags
}

// ParseAcceptLanguage 返回按优先级排序的语言标签列表。
func ParseAcceptLanguage(header string) []string {
	weighted := ParseWeightedTags(header)
	if len(weighted) == 0 {
		return nil
	}
	tags := make([]string, len(weighted))
	for i, w := range weighted {
		tags[i] = w.Tag
	}
	return tags
}

// truncateEntries cuts header to at most limit bytes without keeping a partial
// trailing entry.
func truncateEntries(header string, limit int) string {
	if header[limit] == ',' {
		return header[:limit]
	}
	cut := strings.LastIndexByte(header[:limit], ',')
	if cut < 0 {
		return ""
	}
	return header[:cut]
}

func parseQuality(params string) float64 {
	for _, param := range strings.Split(params, ";") {
		key, value, ok := strings.Cut(param, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(q) {
			return 1.0
		}
		switch {
		case q < 0:
			return 0
		case q > 1:
			return 1
		}
		return q
	}
	return 1.0
}
