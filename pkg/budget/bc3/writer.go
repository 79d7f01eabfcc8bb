package bc3

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FIEBDC-3 record layout used by the writer:
//
//	~V  format version header
//	~K  decimal/currency coefficients
//	~C  concepts (project root, chapter, one per budget line)
//	~T  descriptive texts
//	~D  decompositions (project -> chapter, chapter -> lines)
//	~M  measurements
//
// Records are CRLF-terminated per the FIEBDC interchange rules.
const (
	formatVersion = "FIEBDC-3/2020"
	generatorName = "RAG Presupuestos"
	rootCode      = "PROY"
	chapterCode   = "CAP01"

	crlf = "\r\n"
)

var (
	codeSanitizeRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	spacesRe       = regexp.MustCompile(`\s+`)
)

// Build renders a complete BC3 file for the given lines. The date goes into
// the ~V header; pass a fixed value for reproducible output.
func Build(items []Item, projectName string, date time.Time) string {
	if len(items) == 0 {
		return BuildEmpty(projectName, date)
	}

	var b strings.Builder
	writeHeader(&b, projectName, date)
	record(&b, fmt.Sprintf("~C|%s#||Partidas encontradas||", chapterCode))

	for _, item := range items {
		price := ""
		if item.Price > 0 {
			price = fmt.Sprintf("%.2f", item.Price)
		}
		record(&b, fmt.Sprintf("~C|%s|%s|%s|%s|",
			SanitizeCode(item.Code), item.Unit, SanitizeText(truncate(item.Summary, 200)), price))
	}

	for _, item := range items {
		if item.Description == "" {
			continue
		}
		record(&b, fmt.Sprintf("~T|%s|%s|", SanitizeCode(item.Code), SanitizeText(item.Description)))
	}

	record(&b, fmt.Sprintf(`~D|%s##|%s#\1\1\|`, rootCode, chapterCode))

	children := make([]string, 0, len(items))
	for _, item := range items {
		children = append(children, SanitizeCode(item.Code)+`\1\1`)
	}
	record(&b, fmt.Sprintf(`~D|%s#|%s\|`, chapterCode, strings.Join(children, `\`)))

	for _, item := range items {
		record(&b, fmt.Sprintf("~M|%s|1|1.000||", SanitizeCode(item.Code)))
	}

	return b.String()
}

// BuildEmpty renders a header-only file for the no-results case.
func BuildEmpty(projectName string, date time.Time) string {
	var b strings.Builder
	writeHeader(&b, projectName, date)
	record(&b, fmt.Sprintf("~C|%s#||Sin partidas encontradas||", chapterCode))
	record(&b, fmt.Sprintf(`~D|%s##|%s#\1\1\|`, rootCode, chapterCode))
	return b.String()
}

func writeHeader(b *strings.Builder, projectName string, date time.Time) {
	record(b, fmt.Sprintf("~V|%s|%s|%s|", formatVersion, generatorName, date.Format("02/01/2006")))
	record(b, `~K|\2\2\2\2\2\2\2\2\EUR\|`)
	record(b, fmt.Sprintf("~C|%s##||%s||", rootCode, SanitizeText(projectName)))
}

func record(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString(crlf)
}

// SanitizeCode strips everything a BC3 concept code cannot carry and caps
// the length at 20.
func SanitizeCode(code string) string {
	clean := codeSanitizeRe.ReplaceAllString(code, "")
	if clean == "" {
		return "X001"
	}
	if len(clean) > 20 {
		clean = clean[:20]
	}
	return clean
}

// SanitizeText removes the format's delimiter characters, maps superscript
// units to plain digits and collapses whitespace so free text cannot break
// record framing.
func SanitizeText(text string) string {
	r := strings.NewReplacer("|", " ", "~", " ", `\`, " ", "\n", " ", "\r", " ", "²", "2", "³", "3")
	return strings.TrimSpace(spacesRe.ReplaceAllString(r.Replace(text), " "))
}
