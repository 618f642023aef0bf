package uitemplates

import (
	"bytes"
	"fmt"
	"html/template"
)

type HomeParams struct {
	ActiveUser ActiveUserParams

	ProductCount int
}

var homeText = `
{{define "title"}}Dashboard{{end}}

{{define "breadcrumbs" -}}
<li class="breadcrumb-item active" aria-current="page"><a href="/">Dashboard</a></li>
{{- end}}

{{define "content"}}
<h1>Dashboard</h1>

<p>You are signed in as {{.ActiveUser.Email}}.</p>

<p>You are tracking {{.ProductCount}} product(s).</p>

<ul>
  <li><a href="/products">Inventory</a></li>
  <li><a href="/add-product">Add Product</a></li>
  <li><a href="/account">Account</a></li>
</ul>
{{end}}
`

var homeTemplate = template.Must(template.Must(template.New("base").Parse(baseText)).Parse(homeText))

func HomePage(params *HomeParams) ([]byte, error) {
	b := bytes.Buffer{}
	if err := homeTemplate.Execute(&b, params); err != nil {
		return nil, fmt.Errorf("while executing template: %w", err)
	}
	return b.Bytes(), nil
}
