package bc3

import (
	"regexp"
	"strconv"
	"strings"
)

// Item is one budget line ready to be written as a ~C concept record.
type Item struct {
	Code        string
	Summary     string
	Unit        string
	Price       float64
	Description string
	Score       float64
}

var (
	priceAmountRe = regexp.MustCompile(`[\d.,]+`)
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+[.,]\d{2})\s*(?:EUR|€|euros?)`),
		regexp.MustCompile(`(?i)(?:precio|importe|coste)[:\s]*(\d+[.,]\d{2})`),
	}
	unitPatterns = []struct {
		re   *regexp.Regexp
		unit string
	}{
		// \b is ASCII-only in Go, so the superscript forms are matched
		// without boundaries.
		{regexp.MustCompile(`(?i)\bm2\b|m²|\bmetros?\s*cuadrado`), "m2"},
		{regexp.MustCompile(`(?i)\bml\b|\bmetros?\s*lineal`), "ml"},
		{regexp.MustCompile(`(?i)\bm3\b|m³|\bmetros?\s*c[úu]bico`), "m3"},
		{regexp.MustCompile(`(?i)\bkg\b|\bkilogramo`), "kg"},
		{regexp.MustCompile(`(?i)\bpa\b|\bpartida\s*alzada`), "pa"},
	}
	codeCleanRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// ParseChunk extracts a budget line from a knowledge-base fragment. Fragments
// produced by the BC3 ingester carry labeled fields (Código:, Concepto:, ...);
// free text falls back to first-line summary plus price and unit heuristics.
// Returns false when no usable summary can be found.
func ParseChunk(content string, score float64) (Item, bool) {
	item := Item{Unit: "ud", Score: score}

	lines := strings.Split(strings.TrimSpace(content), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Código:"):
			item.Code = fieldValue(line)
		case strings.HasPrefix(line, "Concepto:"):
			item.Summary = fieldValue(line)
		case strings.HasPrefix(line, "Unidad:"):
			item.Unit = fieldValue(line)
		case strings.HasPrefix(line, "Precio:"):
			if m := priceAmountRe.FindString(fieldValue(line)); m != "" {
				if v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64); err == nil {
					item.Price = v
				}
			}
		case strings.HasPrefix(line, "Descripción:"):
			item.Description = fieldValue(line)
		}
	}

	if item.Summary == "" {
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "Capítulo:") || strings.HasPrefix(line, "Descomposición:") {
				continue
			}
			item.Summary = truncate(line, 200)
			break
		}
	}

	if item.Price == 0 {
		if v, ok := ExtractPrice(content); ok {
			item.Price = v
		}
	}

	if item.Unit == "ud" {
		for _, up := range unitPatterns {
			if up.re.MatchString(content) {
				item.Unit = up.unit
				break
			}
		}
	}

	if item.Code == "" {
		clean := strings.ToUpper(codeCleanRe.ReplaceAllString(truncate(item.Summary, 10), ""))
		if clean == "" {
			item.Code = "GEN001"
		} else {
			item.Code = "GEN" + clean
		}
	}

	if item.Summary == "" {
		return Item{}, false
	}
	return item, true
}

// ExtractPrice pulls the first recognizable euro amount out of free text.
func ExtractPrice(text string) (float64, bool) {
	for _, re := range pricePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

func fieldValue(line string) string {
	_, after, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
