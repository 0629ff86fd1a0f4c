package llm

import (
	"strings"
)

// MaxSourceRunes caps the PSP text sent to a model.
const MaxSourceRunes = 30000

// BuildExtractionPrompt asks for the literal subject-specific sections of a
// prior-year support plan, as a JSON object with the three SectionKeys.
func BuildExtractionPrompt(subject, rawText string) string {
	subject = strings.TrimSpace(subject)
	var b strings.Builder
	b.WriteString("Eres un extractor de datos escolares. Recibes el plan de apoyo (PSP) del curso anterior de un alumno.\n")
	b.WriteString("Localiza la información de la materia \"")
	b.WriteString(subject)
	b.WriteString("\" y copia su contenido de forma literal, sin resumir ni inventar.\n")
	b.WriteString("Si la materia (o un sinónimo evidente) no aparece, devuelve todas las claves como cadena vacía.\n\n")
	b.WriteString("Responde SOLO con un objeto JSON con estas claves:\n")
	b.WriteString(`{"previousActions": "...", "difficultiesStrengths": "...", "unmetEvaluationCriteria": "..."}`)
	b.WriteString("\n\nTexto del PSP:\n\"\"\"\n")
	b.WriteString(TruncateRunes(rawText, MaxSourceRunes))
	b.WriteString("\n\"\"\"")
	return b.String()
}

// BuildRefinePrompt asks for a formal rewrite of one report section.
func BuildRefinePrompt(fieldLabel, currentText string) string {
	parts := []string{
		"Reescribe el apartado \"" + strings.TrimSpace(fieldLabel) + "\" de un informe PRP con lenguaje docente formal y técnico.",
		"No añadas datos que no estén en el texto original.",
		"Devuelve únicamente el texto mejorado, sin comillas ni comentarios.",
		"",
		"Texto original:",
		strings.TrimSpace(currentText),
	}
	return strings.Join(parts, "\n")
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
