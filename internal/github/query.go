package github

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed query.graphql
var defaultQuery string

// LoadQueryTemplate parses the repository query template at path.
// An empty path selects the embedded default query.
// Templates reference the repository as {{.Owner}} and {{.Name}}.
func LoadQueryTemplate(path string) (*template.Template, error) {
	text := defaultQuery
	name := "query.graphql"
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading query template: %w", err)
		}
		text = string(data)
		name = path
	}

	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("error parsing query template: %w", err)
	}
	return t, nil
}

// RenderQuery substitutes owner and name into the query template
func RenderQuery(t *template.Template, owner, name string) (string, error) {
	var sb strings.Builder
	err := t.Execute(&sb, struct{ Owner, Name string }{owner, name})
	if err != nil {
		return "", fmt.Errorf("error rendering query for %s/%s: %w", owner, name, err)
	}
	return sb.String(), nil
}
