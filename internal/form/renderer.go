package form

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/wakala/be2bill/internal/domain"
)

const FormPath = "/front/form/process"

// HTMLOptions carries extra attributes for the form and submit tags.
// Event handler, style and value attributes are neutralized by
// html/template; the submit button label goes in SubmitLabel.
type HTMLOptions struct {
	Form        map[string]string
	Submit      map[string]string
	SubmitLabel string
}

// Renderer turns signed parameters into something a browser can post.
type Renderer interface {
	Render(params domain.Params, opts HTMLOptions) (string, error)
}

var formTemplate = template.Must(template.New("form").Parse(
	`<form method="post" action="{{.Action}}"{{range $k, $v := .Form}} {{$k}}="{{$v}}"{{end}}>` +
		`{{range .Inputs}}<input type="hidden" name="{{.Name}}" value="{{.Value}}" />{{end}}` +
		`<input type="submit"{{with .Label}} value="{{.}}"{{end}}{{range $k, $v := .Submit}} {{$k}}="{{$v}}"{{end}} />` +
		`</form>`,
))

type hiddenInput struct {
	Name  string
	Value string
}

// HTML renders a self-posting form to the gateway's payment page.
type HTML struct {
	action string
}

func NewHTML(baseURL string) *HTML {
	return &HTML{action: strings.TrimRight(baseURL, "/") + FormPath}
}

func (h *HTML) Action() string {
	return h.action
}

// Render emits one hidden input per scalar and one KEY[SUB] input per
// nested entry, in key order.
func (h *HTML) Render(params domain.Params, opts HTMLOptions) (string, error) {
	var inputs []hiddenInput
	for _, key := range params.Keys() {
		v := params[key]
		if !v.IsNested() {
			inputs = append(inputs, hiddenInput{Name: key, Value: v.String()})
			continue
		}
		for _, sub := range v.SubKeys() {
			val, _ := v.Sub(sub)
			inputs = append(inputs, hiddenInput{Name: key + "[" + sub + "]", Value: val})
		}
	}

	var b strings.Builder
	err := formTemplate.Execute(&b, struct {
		Action string
		Form   map[string]string
		Submit map[string]string
		Label  string
		Inputs []hiddenInput
	}{h.action, opts.Form, opts.Submit, opts.SubmitLabel, inputs})
	if err != nil {
		return "", fmt.Errorf("render form: %w", err)
	}
	return b.String(), nil
}
