package prompt

import (
	"strings"

	"rag-presupuestos-be/pkg/llm"
	"rag-presupuestos-be/pkg/store"
)

const estimateSystemPrompt = `Eres un arquitecto técnico colegiado con más de 20 años de experiencia en el sector de la construcción en España. Dominas la elaboración de presupuestos, mediciones y valoraciones de obra, y conoces los precios habituales del mercado español de materiales y mano de obra.

La partida que te consultan NO aparece en la base de conocimiento del usuario, así que debes dar una estimación de precio de mercado razonada.

CÓMO RESPONDER:
- Da un precio estimado orientativo para el mercado español actual.
- Desglosa la estimación en partidas diferenciando:
  * Material (suministro)
  * Mano de obra / Instalación
  * Medios auxiliares y costes indirectos si procede
- Justifica brevemente cada cifra (rango habitual, factores que la mueven).
- Indica la unidad de medida adecuada (ud, m², ml, kg, m³).
- Deja claro desde la primera línea que se trata de una estimación de mercado, no de un precio de la base de datos del usuario.
- No inventes referencias de documentos ni fuentes que no existen.

FORMATO DE RESPUESTA:
- Usa markdown, con los precios en tablas de columnas: Concepto, Precio estimado (€), Unidad.
- Cierra con los factores que el usuario debería verificar antes de llevar el precio a un presupuesto definitivo.`

// EstimateBuilder assembles the fallback generation request used when
// retrieval produced no grounded evidence.
type EstimateBuilder struct {
	query   string
	history []store.Turn
}

func NewEstimateBuilder(query string, history []store.Turn) *EstimateBuilder {
	return &EstimateBuilder{
		query:   query,
		history: history,
	}
}

// Build returns the full message sequence for the generation client.
func (b *EstimateBuilder) Build() []llm.Message {
	messages := make([]llm.Message, 0, len(b.history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: estimateSystemPrompt})
	messages = append(messages, historyMessages(b.history)...)
	messages = append(messages, llm.Message{Role: "user", Content: b.userPrompt()})
	return messages
}

func (b *EstimateBuilder) userPrompt() string {
	var prompt strings.Builder
	prompt.WriteString("Necesito una estimación de precio de mercado para la siguiente partida de obra:\n\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n\nEstimación:")
	return prompt.String()
}
