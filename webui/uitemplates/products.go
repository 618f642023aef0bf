package uitemplates

import (
	"bytes"
	"fmt"
	"html/template"
)

type ListProductsParams struct {
	// Categories holds one filter tab per category, plus the "All"
	// pseudo-category.
	Categories []ListProductsCategory

	Products []ListProductsProduct
}

type ListProductsCategory struct {
	Name     string
	Link     string
	Selected bool
}

type ListProductsProduct struct {
	Name     string
	Price    string
	Quantity string
	Category string

	EditProductLink string
	DeleteFormID    string
}

var listProductsText = `
{{define "title"}}Inventory{{end}}

{{define "breadcrumbs" -}}
<li class="breadcrumb-item"><a href="/">Dashboard</a></li>
<li class="breadcrumb-item active" aria-current="page"><a href="/products">Inventory</a></li>
{{- end}}

{{define "content"}}
<h1>Inventory</h1>

<ul class="nav nav-pills mb-3">
{{range .Categories}}
  <li class="nav-item">
    <a class="nav-link{{if .Selected}} active{{end}}" href="{{.Link}}">{{.Name}}</a>
  </li>
{{end}}
</ul>

<table class="table">
  <thead>
    <tr><th>Name</th><th>Price</th><th>Quantity</th><th>Category</th><th></th></tr>
  </thead>
  <tbody>
  {{range .Products}}
    <tr>
      <td>{{.Name}}</td>
      <td>{{.Price}}</td>
      <td>{{.Quantity}}</td>
      <td>{{.Category}}</td>
      <td>
        <a class="btn btn-sm btn-outline-secondary" href="{{.EditProductLink}}">Edit</a>
        <button type="submit" form="{{.DeleteFormID}}" class="btn btn-sm btn-outline-danger">Delete</button>
      </td>
    </tr>
  {{end}}
  </tbody>
</table>

{{range .Products}}
<form id="{{.DeleteFormID}}" method="POST" action="/delete-product">
  <input type="hidden" name="id" value="{{.DeleteFormID}}">
</form>
{{end}}

<a class="btn btn-primary" href="/add-product">Add Product</a>
{{end}}
`

var listProductsTemplate = template.Must(template.Must(template.New("base").Parse(baseText)).Parse(listProductsText))

func ListProductsPage(params *ListProductsParams) ([]byte, error) {
	b := bytes.Buffer{}
	if err := listProductsTemplate.Execute(&b, params); err != nil {
		return nil, fmt.Errorf("while executing template: %w", err)
	}
	return b.Bytes(), nil
}
