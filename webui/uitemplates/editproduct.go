package uitemplates

import (
	"bytes"
	"fmt"
	"html/template"
)

type EditProductParams struct {
	UserError string

	SelfLink string

	Categories []string

	Name     string
	Price    string
	Quantity string
	Category string
}

var editProductText = `
{{define "title"}}Edit Product{{end}}

{{define "breadcrumbs" -}}
<li class="breadcrumb-item"><a href="/">Dashboard</a></li>
<li class="breadcrumb-item"><a href="/products">Inventory</a></li>
<li class="breadcrumb-item active" aria-current="page"><a href="{{.SelfLink}}">Edit Product</a></li>
{{- end}}

{{define "content"}}
<h1>Edit product:</h1>

{{if .UserError}}
  <div class="alert alert-danger" role="alert">
    Error: {{.UserError}}
  </div>
{{end}}

<form method="POST">
  <div class="mb-3">
    <label for="name" class="form-label">Name</label>
    <input id="name" type="text" name="name" value="{{.Name}}" class="form-control" required>
  </div>
  <div class="mb-3">
    <label for="price" class="form-label">Price</label>
    <input id="price" type="number" name="price" value="{{.Price}}" min="0" step="0.01" class="form-control" required>
  </div>
  <div class="mb-3">
    <label for="quantity" class="form-label">Quantity</label>
    <input id="quantity" type="number" name="quantity" value="{{.Quantity}}" min="0" step="1" class="form-control" required>
  </div>
  <fieldset class="mb-3">
    <legend>Category</legend>
    {{$selected := .Category}}
    {{range .Categories}}
    <div class="form-check">
      <input class="form-check-input" type="radio" name="category" id="category-{{.}}" value="{{.}}" {{if eq . $selected}}checked{{end}}>
      <label class="form-check-label" for="category-{{.}}">{{.}}</label>
    </div>
    {{end}}
  </fieldset>

  <button type="submit" class="btn btn-primary">Save</button>
</form>
{{end}}
`

var editProductTemplate = template.Must(template.Must(template.New("base").Parse(baseText)).Parse(editProductText))

func EditProductPage(params *EditProductParams) ([]byte, error) {
	b := bytes.Buffer{}
	if err := editProductTemplate.Execute(&b, params); err != nil {
		return nil, fmt.Errorf("while executing template: %w", err)
	}
	return b.Bytes(), nil
}
