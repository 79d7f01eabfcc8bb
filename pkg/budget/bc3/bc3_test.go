package bc3

import (
	"strings"
	"testing"
	"time"
)

var testDate = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func TestSanitizeCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"alphanumeric preserved", "ABC123", "ABC123"},
		{"special chars removed", "AB-C.12/3", "ABC123"},
		{"underscore preserved", "AB_CD", "AB_CD"},
		{"empty returns placeholder", "", "X001"},
		{"all special returns placeholder", "!@#$%^&*", "X001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeCode(tt.in); got != tt.want {
				t.Errorf("SanitizeCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if got := SanitizeCode(strings.Repeat("A", 30)); len(got) != 20 {
		t.Errorf("long code should truncate to 20, got %d", len(got))
	}
}

func TestSanitizeText(t *testing.T) {
	for _, bad := range []string{"|", "~", `\`, "\n", "\r"} {
		if strings.Contains(SanitizeText("a"+bad+"b"), bad) {
			t.Errorf("SanitizeText should strip %q", bad)
		}
	}
	if got := SanitizeText("texto   con    espacios"); strings.Contains(got, "  ") {
		t.Errorf("multiple spaces should collapse, got %q", got)
	}
	if got := SanitizeText("  texto  "); got != "texto" {
		t.Errorf("surrounding whitespace should be stripped, got %q", got)
	}
	if got := SanitizeText("m² y m³"); got != "m2 y m3" {
		t.Errorf("superscripts should map to digits, got %q", got)
	}
}

func TestParseChunkStructured(t *testing.T) {
	content := "Código: E02AM010\n" +
		"Concepto: Excavación en zanjas\n" +
		"Unidad: m3\n" +
		"Precio: 15.50\n" +
		"Descripción: Excavación mecánica de zanjas"

	item, ok := ParseChunk(content, 0.85)
	if !ok {
		t.Fatal("expected a parsed item")
	}
	if item.Code != "E02AM010" || item.Summary != "Excavación en zanjas" ||
		item.Unit != "m3" || item.Price != 15.50 ||
		item.Description != "Excavación mecánica de zanjas" || item.Score != 0.85 {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestParseChunkFreeText(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantSum   string
		wantUnit  string
		wantPrice float64
	}{
		{
			name:    "first line becomes summary",
			content: "Suministro e instalación de caldera\nDetalles adicionales",
			wantSum: "Suministro e instalación de caldera", wantUnit: "ud",
		},
		{
			name:    "price from EUR suffix",
			content: "Pavimento porcelánico\nPrecio total: 45,50 EUR",
			wantSum: "Pavimento porcelánico", wantUnit: "ud", wantPrice: 45.50,
		},
		{
			name:    "price from coste label",
			content: "Pintura plástica\ncoste: 12.30",
			wantSum: "Pintura plástica", wantUnit: "ud", wantPrice: 12.30,
		},
		{
			name:    "metro cuadrado infers m2",
			content: "Solado de mármol por metro cuadrado",
			wantSum: "Solado de mármol por metro cuadrado", wantUnit: "m2",
		},
		{
			name:    "metro lineal infers ml",
			content: "Tubería de PVC metro lineal instalado",
			wantSum: "Tubería de PVC metro lineal instalado", wantUnit: "ml",
		},
		{
			name:    "superscript infers m3",
			content: "Hormigón armado HA-25 por m³",
			wantSum: "Hormigón armado HA-25 por m³", wantUnit: "m3",
		},
		{
			name:    "kg infers kg",
			content: "Acero corrugado B500S en kg",
			wantSum: "Acero corrugado B500S en kg", wantUnit: "kg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := ParseChunk(tt.content, 0.6)
			if !ok {
				t.Fatal("expected a parsed item")
			}
			if item.Summary != tt.wantSum {
				t.Errorf("summary = %q, want %q", item.Summary, tt.wantSum)
			}
			if item.Unit != tt.wantUnit {
				t.Errorf("unit = %q, want %q", item.Unit, tt.wantUnit)
			}
			if item.Price != tt.wantPrice {
				t.Errorf("price = %v, want %v", item.Price, tt.wantPrice)
			}
		})
	}
}

func TestParseChunkGeneratesCode(t *testing.T) {
	item, ok := ParseChunk("Demolición de tabique", 0.5)
	if !ok {
		t.Fatal("expected a parsed item")
	}
	if !strings.HasPrefix(item.Code, "GEN") {
		t.Errorf("generated code should start with GEN, got %q", item.Code)
	}
}

func TestParseChunkEmpty(t *testing.T) {
	if _, ok := ParseChunk("", 0.5); ok {
		t.Error("empty content should not parse")
	}
	if _, ok := ParseChunk("   \n\n   ", 0.5); ok {
		t.Error("whitespace-only content should not parse")
	}
}

func TestBuildRecords(t *testing.T) {
	items := []Item{
		{Code: "P001", Summary: "Albañilería básica", Unit: "m2", Price: 25.0, Description: "Descripción larga"},
		{Code: "P002", Summary: "Sin precio", Unit: "ud"},
	}
	out := Build(items, "Reforma Oficina", testDate)

	if !strings.HasPrefix(out, "~V|FIEBDC-3/2020|") {
		t.Error("output should start with the ~V version record")
	}
	for _, want := range []string{
		"~K|",
		"Reforma Oficina",
		"10/06/2024",
		"~C|P001|m2|",
		"~T|P001|",
		"~D|PROY##|CAP01#",
		"~D|CAP01#|",
		"~M|P001|",
		"~M|P002|",
		"~C|P002|ud|Sin precio||",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if !strings.Contains(out, crlf) {
		t.Error("records should be CRLF-terminated")
	}
	if strings.Contains(out, "~T|P002|") {
		t.Error("items without a description should not emit a ~T record")
	}
}

func TestBuildEmpty(t *testing.T) {
	out := Build(nil, "Proyecto Vacío", testDate)
	lines := strings.Split(strings.TrimSuffix(out, crlf), crlf)
	if len(lines) != 5 {
		t.Fatalf("empty file should have 5 records, got %d: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "~V|") || !strings.HasPrefix(lines[1], "~K|") {
		t.Errorf("unexpected header records: %q, %q", lines[0], lines[1])
	}
	if !strings.Contains(lines[2], "Proyecto Vac") || !strings.Contains(lines[3], "Sin partidas") {
		t.Errorf("unexpected body records: %q, %q", lines[2], lines[3])
	}
	if !strings.HasPrefix(lines[4], "~D|PROY##|") {
		t.Errorf("expected project decomposition last, got %q", lines[4])
	}
}
