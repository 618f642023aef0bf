package uitemplates

import (
	"bytes"
	"fmt"
	"html/template"
)

type AccountParams struct {
	ActiveUser ActiveUserParams
}

var accountText = `
{{define "title"}}Account{{end}}

{{define "breadcrumbs" -}}
<li class="breadcrumb-item"><a href="/">Dashboard</a></li>
<li class="breadcrumb-item active" aria-current="page"><a href="/account">Account</a></li>
{{- end}}

{{define "content"}}
<h1>Account</h1>

<p>Signed in as {{.ActiveUser.Email}}.</p>

<form method="POST" action="/log-out" class="mb-3">
  <button type="submit" class="btn btn-primary">Log Out</button>
</form>

<h2>Danger zone</h2>

<form method="POST" action="/delete-all-products">
  <button type="submit" class="btn btn-danger">Delete All Products</button>
</form>
{{end}}
`

var accountTemplate = template.Must(template.Must(template.New("base").Parse(baseText)).Parse(accountText))

func AccountPage(params *AccountParams) ([]byte, error) {
	b := bytes.Buffer{}
	if err := accountTemplate.Execute(&b, params); err != nil {
		return nil, fmt.Errorf("while executing template: %w", err)
	}
	return b.Bytes(), nil
}
