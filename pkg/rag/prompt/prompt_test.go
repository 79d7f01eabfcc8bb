package prompt

import (
	"strings"
	"testing"

	"rag-presupuestos-be/pkg/rag/search"
	"rag-presupuestos-be/pkg/store"
)

func intPtr(v int) *int { return &v }

func TestGroundedBuilderMessages(t *testing.T) {
	evidence := []search.Result{
		{Hit: search.Hit{
			Filename:   "cuadro_precios_2024.pdf",
			Content:    "Hormigón HA-25/B/20/IIa: 92,40 €/m³",
			SourcePage: intPtr(12),
		}},
		{Hit: search.Hit{
			Filename:  "base_precios.xlsx",
			Content:   "Encofrado de muro a dos caras: 28,10 €/m²",
			SourceRow: intPtr(340),
		}},
	}
	history := []store.Turn{
		{Role: store.RoleUser, Content: "¿Precio del hormigón?"},
		{Role: store.RoleAssistant, Content: "Depende de la tipificación."},
	}

	messages := NewGroundedBuilder("precio HA-25 puesto en obra", evidence, history).Build()

	if len(messages) != 4 {
		t.Fatalf("expected system + 2 history + user, got %d messages", len(messages))
	}
	if messages[0].Role != "system" || !strings.Contains(messages[0].Content, "arquitecto técnico") {
		t.Errorf("unexpected system message: %q", messages[0].Content[:40])
	}
	if messages[1].Role != "user" || messages[2].Role != "assistant" {
		t.Errorf("history roles out of order: %s, %s", messages[1].Role, messages[2].Role)
	}

	user := messages[3]
	if user.Role != "user" {
		t.Fatalf("final message role = %s, want user", user.Role)
	}
	for _, want := range []string{
		"Fragmento 1:",
		"[Documento: cuadro_precios_2024.pdf | Página: 12]",
		"Fragmento 2:",
		"[Documento: base_precios.xlsx | Fila: 340]",
		"Hormigón HA-25/B/20/IIa",
		"Pregunta del usuario: precio HA-25 puesto en obra",
	} {
		if !strings.Contains(user.Content, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestGroundedBuilderNoHistory(t *testing.T) {
	evidence := []search.Result{
		{Hit: search.Hit{Filename: "precios.pdf", Content: "Partida X"}},
	}
	messages := NewGroundedBuilder("partida X", evidence, nil).Build()
	if len(messages) != 2 {
		t.Fatalf("expected system + user, got %d messages", len(messages))
	}
	if strings.Contains(messages[1].Content, "Página") || strings.Contains(messages[1].Content, "Fila") {
		t.Error("label should omit page and row when the source has neither")
	}
}

func TestSourceLabel(t *testing.T) {
	tests := []struct {
		name string
		ev   search.Result
		want string
	}{
		{
			name: "filename only",
			ev:   search.Result{Hit: search.Hit{Filename: "a.pdf"}},
			want: "Documento: a.pdf",
		},
		{
			name: "with page",
			ev:   search.Result{Hit: search.Hit{Filename: "a.pdf", SourcePage: intPtr(3)}},
			want: "Documento: a.pdf | Página: 3",
		},
		{
			name: "with row",
			ev:   search.Result{Hit: search.Hit{Filename: "b.xlsx", SourceRow: intPtr(17)}},
			want: "Documento: b.xlsx | Fila: 17",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceLabel(tt.ev); got != tt.want {
				t.Errorf("SourceLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEstimateBuilderMessages(t *testing.T) {
	history := []store.Turn{
		{Role: store.RoleUser, Content: "Busco precios de demolición"},
	}
	messages := NewEstimateBuilder("demolición de tabique de 7 cm", history).Build()

	if len(messages) != 3 {
		t.Fatalf("expected system + 1 history + user, got %d messages", len(messages))
	}
	if !strings.Contains(messages[0].Content, "estimación de precio de mercado") {
		t.Error("system message should frame the answer as a market estimate")
	}
	if strings.Contains(messages[0].Content, "base de conocimiento del usuario") == false {
		t.Error("system message should state the item is absent from the knowledge base")
	}
	user := messages[len(messages)-1]
	if !strings.Contains(user.Content, "demolición de tabique de 7 cm") {
		t.Error("user prompt should carry the query verbatim")
	}
}
