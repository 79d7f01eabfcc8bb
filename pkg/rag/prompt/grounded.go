package prompt

import (
	"fmt"
	"strings"

	"rag-presupuestos-be/pkg/llm"
	"rag-presupuestos-be/pkg/rag/search"
	"rag-presupuestos-be/pkg/store"
)

const groundedSystemPrompt = `Eres un arquitecto técnico colegiado con más de 20 años de experiencia en el sector de la construcción en España. Dominas la elaboración de presupuestos, mediciones y valoraciones de obra. Conoces perfectamente el mercado español de materiales, las normativas vigentes (CTE, LOE, RITE, RIPCI, RSIF, EHE-08, EAE, REBT) y la terminología técnica del sector.

CÓMO RESPONDER:
- Usa un tono profesional pero cercano, como un compañero de obra experimentado.
- Responde basándote en la información del contexto proporcionado.
- Cuando el contexto contenga precios, desglosa siempre las partidas diferenciando claramente:
  * Material (suministro)
  * Mano de obra / Instalación
  * Medios auxiliares si aparecen
- Si el usuario pregunta por algo que no está exactamente en el contexto pero hay productos similares o alternativos, sugiere esas alternativas indicando claramente: "No he encontrado exactamente eso, pero en la base de datos tenemos estas opciones que podrían servir:".
- Si no hay nada relacionado, dilo claramente.
- No inventes precios ni referencias que no estén en el contexto.

FORMATO DE RESPUESTA:
- Usa markdown para estructurar la respuesta.
- Presenta los precios en tablas markdown con columnas: Concepto, Precio (€), Unidad.
- Deduce la unidad de medida del tipo de partida (equipos = ud, superficies = m², longitudes = ml, peso = kg, volumen = m³).
- Agrupa por capítulos o categorías cuando haya varios conceptos (ej: Albañilería, Instalaciones, Carpintería, Equipamiento).
- Incluye información técnica relevante: modelo, marca, referencia, dimensiones, características.
- Si puedes aportar contexto profesional útil (ej: "este precio está dentro del rango habitual en obra nueva" o "conviene verificar si incluye transporte"), hazlo brevemente.
- Al final, añade una sección **Fuentes** con el nombre del documento y página.`

// GroundedBuilder assembles the evidence-backed generation request: system
// role, trimmed session history, then the labeled fragments and question.
type GroundedBuilder struct {
	query    string
	evidence []search.Result
	history  []store.Turn
}

func NewGroundedBuilder(query string, evidence []search.Result, history []store.Turn) *GroundedBuilder {
	return &GroundedBuilder{
		query:    query,
		evidence: evidence,
		history:  history,
	}
}

// Build returns the full message sequence for the generation client.
func (b *GroundedBuilder) Build() []llm.Message {
	messages := make([]llm.Message, 0, len(b.history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: groundedSystemPrompt})
	messages = append(messages, historyMessages(b.history)...)
	messages = append(messages, llm.Message{Role: "user", Content: b.userPrompt()})
	return messages
}

func (b *GroundedBuilder) userPrompt() string {
	var prompt strings.Builder

	prompt.WriteString("Contexto (fragmentos de documentos de la base de conocimiento):\n")
	for i, ev := range b.evidence {
		if i > 0 {
			prompt.WriteString("\n\n---\n\n")
		}
		prompt.WriteString(fmt.Sprintf("Fragmento %d:\n[%s]\n%s", i+1, SourceLabel(ev), ev.Content))
	}

	prompt.WriteString("\n\n---\n\nPregunta del usuario: ")
	prompt.WriteString(b.query)
	prompt.WriteString("\n\nRespuesta:")

	return prompt.String()
}

// SourceLabel renders the provenance tag placed above each fragment,
// e.g. "Documento: precios.pdf | Página: 12".
func SourceLabel(ev search.Result) string {
	label := "Documento: " + ev.Filename
	if ev.SourcePage != nil {
		label += fmt.Sprintf(" | Página: %d", *ev.SourcePage)
	}
	if ev.SourceRow != nil {
		label += fmt.Sprintf(" | Fila: %d", *ev.SourceRow)
	}
	return label
}

func historyMessages(history []store.Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}
