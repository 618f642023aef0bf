package uitemplates

import (
	"bytes"
	"fmt"
	"html/template"
)

type SignUpParams struct {
	UserError string
}

var signUpText = `
{{define "title"}}Sign Up{{end}}

{{define "breadcrumbs" -}}
<li class="breadcrumb-item"><a href="/log-in">Log In</a></li>
<li class="breadcrumb-item active" aria-current="page"><a href="/sign-up">Sign Up</a></li>
{{- end}}

{{define "content"}}
<h1>Sign Up</h1>

{{if .UserError}}
  <div class="alert alert-danger" role="alert">
    Error: {{.UserError}}
  </div>
{{end}}

<form method="POST">
  <div class="mb-3">
    <label for="email" class="form-label">Email</label>
    <input id="email" type="email" name="email" class="form-control" required>
  </div>
  <div class="mb-3">
    <label for="password" class="form-label">Password</label>
    <input id="password" type="password" name="password" class="form-control" required>
  </div>
  <button type="submit" class="btn btn-primary">Sign Up</button>
</form>

<p class="mt-3">Already have an account?  <a href="/log-in">Log in</a>.</p>
{{end}}
`

var signUpTemplate = template.Must(template.Must(template.New("base").Parse(baseText)).Parse(signUpText))

func SignUpPage(params *SignUpParams) ([]byte, error) {
	b := bytes.Buffer{}
	if err := signUpTemplate.Execute(&b, params); err != nil {
		return nil, fmt.Errorf("while executing template: %w", err)
	}
	return b.Bytes(), nil
}
