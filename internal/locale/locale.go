package locale

import (
	"sort"
	"strconv"
	"strings"
)

// Any 表示不按语言过滤内容。
const Any = "*"

type Preference struct {
	Language string
	HTMLLang string
}

// Canonical lowercases a locale code and uses '-' as separator, e.g. "en_US" -> "en-us".
func Canonical(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(trimmed, "_", "-")
}

// NormalizeLanguage maps raw onto one of the supported content locales.
// An exact match wins; otherwise the primary subtag ("fr" for "fr-CA") is
// matched against the supported list in order. Returns "" when nothing fits.
func NormalizeLanguage(raw string, supported []string) string {
	candidate := Canonical(raw)
	if candidate == "" {
		return ""
	}
	for _, locale := range supported {
		if Canonical(locale) == candidate {
			return Canonical(locale)
		}
	}
	primary := primarySubtag(candidate)
	for _, locale := range supported {
		if primarySubtag(Canonical(locale)) == primary {
			return Canonical(locale)
		}
	}
	return ""
}

type weightedTag struct {
	tag    string
	weight float64
	order  int
}

// LanguageFromAcceptLanguage picks the highest weighted Accept-Language entry
// that maps onto a supported locale.
func LanguageFromAcceptLanguage(header string, supported []string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}

	parts := strings.Split(trimmed, ",")
	tags := make([]weightedTag, 0, len(parts))
	for i, part := range parts {
		fields := strings.Split(part, ";")
		tag := strings.TrimSpace(fields[0])
		if tag == "" || tag == "*" {
			continue
		}
		weight := 1.0
		for _, param := range fields[1:] {
			param = strings.TrimSpace(param)
			if !strings.HasPrefix(param, "q=") {
				continue
			}
			if parsed, err := strconv.ParseFloat(strings.TrimPrefix(param, "q="), 64); err == nil {
				weight = parsed
			}
		}
		if weight <= 0 {
			continue
		}
		tags = append(tags, weightedTag{tag: tag, weight: weight, order: i})
	}

	sort.SliceStable(tags, func(i, j int) bool {
		if tags[i].weight == tags[j].weight {
			return tags[i].order < tags[j].order
		}
		return tags[i].weight > tags[j].weight
	})

	for _, tag := range tags {
		if matched := NormalizeLanguage(tag.tag, supported); matched != "" {
			return matched
		}
	}
	return ""
}

// PreferenceForLanguage 返回内容语言以及 <html lang> 使用的 BCP 47 形式。
// 空语言表示不向 CMS 传 lang，由仓库主语言决定。
func PreferenceForLanguage(language string) Preference {
	canonical := Canonical(language)
	if canonical == "" {
		return Preference{HTMLLang: "en"}
	}
	if canonical == Any {
		return Preference{Language: Any, HTMLLang: "en"}
	}
	primary, region, found := strings.Cut(canonical, "-")
	if !found || region == "" {
		return Preference{Language: canonical, HTMLLang: primary}
	}
	return Preference{Language: canonical, HTMLLang: primary + "-" + strings.ToUpper(region)}
}

func primarySubtag(tag string) string {
	primary, _, _ := strings.Cut(tag, "-")
	return primary
}
