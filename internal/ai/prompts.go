package ai

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/thomas-vilte/matebot/internal/models"
)

// PromptData holds the parameters for template rendering
type PromptData struct {
	Diff    string
	Diffs   []models.FileDiff
	Docs    []models.DocFile
	PRTitle string
	PRBody  string
}

// RenderPrompt renders a prompt template with the provided data
func RenderPrompt(name, tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("error parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", name, err)
	}

	return buf.String(), nil
}

const (
	reviewPromptTemplateEN = `# Task
Act as a Senior Software Engineer and review the following Pull Request diff.

# Review Areas
1. **Code quality:** structure, naming, duplication and maintainability.
2. **Potential bugs:** logic errors, unhandled edge cases, wrong error handling.
3. **Security:** injection, secrets in code, unsafe input handling, permissions.
4. **Performance:** unnecessary work, inefficient algorithms, resource leaks.
5. **Readability:** clarity, comments where they help, consistency with the codebase.

# Rules
- Only comment on what is in the diff. If something is not there, DO NOT invent it.
- Reference files and lines when possible.
- Be specific and actionable; suggest a fix for each problem.
- If the change looks good, say so briefly.

# Output Format
Respond in Markdown with one "###" section per review area, followed by a short "### Summary".
Do not wrap the answer in a code block.

# Diff
` + "```diff" + `
{{.Diff}}
` + "```" + `
`

	reviewPromptTemplateES = `# Tarea
Actuá como un Ingeniero de Software Senior y revisá el siguiente diff de un Pull Request.

# Áreas de revisión
1. **Calidad de código:** estructura, nombres, duplicación y mantenibilidad.
2. **Bugs potenciales:** errores de lógica, casos borde sin manejar, manejo de errores incorrecto.
3. **Seguridad:** inyecciones, secretos en el código, manejo inseguro de entradas, permisos.
4. **Performance:** trabajo innecesario, algoritmos ineficientes, fugas de recursos.
5. **Legibilidad:** claridad, comentarios donde ayudan, consistencia con el código existente.

# Reglas
- Comentá solo lo que está en el diff. Si algo no está, no lo inventes.
- Referenciá archivos y líneas cuando sea posible.
- Sé específico y accionable; sugerí una corrección para cada problema.
- Si el cambio está bien, decilo brevemente.

# Formato de salida
Respondé en Markdown con una sección "###" por área de revisión, seguida de un "### Resumen" corto.
No envuelvas la respuesta en un bloque de código.

# Diff
` + "```diff" + `
{{.Diff}}
` + "```" + `
`

	docsPromptTemplateEN = `# Task
Act as a Technical Writer. A Pull Request was merged; update the project documentation so it matches the code.

# Pull Request
Title: {{.PRTitle}}
Description:
{{.PRBody}}

# Code Changes
{{range .Diffs}}
## {{.Path}}
` + "```diff" + `
{{.Diff}}
` + "```" + `
{{end}}
# Existing Documentation
{{range .Docs}}
## {{.Path}}
` + "````markdown" + `
{{.Content}}
` + "````" + `
{{else}}
(no documentation files found)
{{end}}
# Rules
1. Only document behavior visible in the code changes. DO NOT invent features.
2. Prefer updating an existing file over creating a new one.
3. "content" MUST be the complete new file text, never a patch or an excerpt.
4. Paths are relative to the repository root.
5. If nothing needs to change, return an empty "updates" array.

# STRICT OUTPUT FORMAT
Return ONLY a JSON object with this shape, no text before or after:
{
  "updates": [
    {
      "file": "docs/path.md",
      "action": "update",
      "content": "full file content",
      "reason": "why this file changes"
    }
  ],
  "summary": "one paragraph describing the documentation changes"
}
"action" MUST be "update" or "create".
`

	docsPromptTemplateES = `# Tarea
Actuá como Technical Writer. Se mergeó un Pull Request; actualizá la documentación del proyecto para que refleje el código.

# Pull Request
Título: {{.PRTitle}}
Descripción:
{{.PRBody}}

# Cambios de código
{{range .Diffs}}
## {{.Path}}
` + "```diff" + `
{{.Diff}}
` + "```" + `
{{end}}
# Documentación existente
{{range .Docs}}
## {{.Path}}
` + "````markdown" + `
{{.Content}}
` + "````" + `
{{else}}
(no se encontraron archivos de documentación)
{{end}}
# Reglas
1. Documentá solo comportamiento visible en los cambios. No inventes funcionalidades.
2. Preferí actualizar un archivo existente antes que crear uno nuevo.
3. "content" DEBE ser el texto completo del archivo, nunca un parche ni un fragmento.
4. Las rutas son relativas a la raíz del repositorio.
5. Si no hace falta ningún cambio, devolvé un array "updates" vacío.

# FORMATO DE SALIDA ESTRICTO
Devolvé SOLO un objeto JSON con esta forma, sin texto antes ni después:
{
  "updates": [
    {
      "file": "docs/ruta.md",
      "action": "update",
      "content": "contenido completo del archivo",
      "reason": "por qué cambia este archivo"
    }
  ],
  "summary": "un párrafo describiendo los cambios de documentación"
}
"action" DEBE ser "update" o "create".
`
)

// GetReviewPromptTemplate returns the code review template for the given language.
func GetReviewPromptTemplate(lang string) string {
	switch lang {
	case "es":
		return reviewPromptTemplateES
	default:
		return reviewPromptTemplateEN
	}
}

// GetDocsPromptTemplate returns the documentation update template for the given language.
func GetDocsPromptTemplate(lang string) string {
	switch lang {
	case "es":
		return docsPromptTemplateES
	default:
		return docsPromptTemplateEN
	}
}
