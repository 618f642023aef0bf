package uitemplates

import (
	"bytes"
	"fmt"
	"html/template"
)

type SplashParams struct {
}

var splashText = `
{{define "title"}}Loading{{end}}

{{define "content"}}
<div class="text-center mt-5">
  <div class="spinner-border" role="status"></div>
  <p>Loading&hellip;</p>
</div>
{{end}}
`

var splashTemplate = template.Must(template.Must(template.New("base").Parse(baseText)).Parse(splashText))

func SplashPage(params *SplashParams) ([]byte, error) {
	b := bytes.Buffer{}
	if err := splashTemplate.Execute(&b, params); err != nil {
		return nil, fmt.Errorf("while executing template: %w", err)
	}
	return b.Bytes(), nil
}
