package form

import (
	"strings"
	"testing"

	"github.com/wakala/be2bill/internal/domain"
	"github.com/wakala/be2bill/internal/signing"
)

// recordingRenderer keeps the last params it was asked to render.
type recordingRenderer struct {
	params domain.Params
	opts   HTMLOptions
}

func (r *recordingRenderer) Render(params domain.Params, opts HTMLOptions) (string, error) {
	r.params = params
	r.opts = opts
	return "<form/>", nil
}

func TestBuildPaymentFormButton(t *testing.T) {
	rr := &recordingRenderer{}
	c := NewClient(domain.Credentials{Identifier: "merchant", Password: "secret"}, rr)

	opts := domain.Params{}
	opts.SetString("IDENTIFIER", "spoofed")
	opts.SetString("EXTRADATA", "cart-42")
	opts.SetString("ORDERID", "overridden")

	out, err := c.BuildPaymentFormButton(domain.Single(1500), "order-1", "client-1", "shoes", HTMLOptions{}, opts)
	if err != nil {
		t.Fatalf("BuildPaymentFormButton() error = %v", err)
	}
	if out != "<form/>" {
		t.Errorf("output = %q", out)
	}

	p := rr.params
	want := map[string]string{
		"IDENTIFIER":    "merchant",
		"OPERATIONTYPE": "payment",
		"ORDERID":       "order-1",
		"CLIENTIDENT":   "client-1",
		"DESCRIPTION":   "shoes",
		"AMOUNT":        "1500",
		"VERSION":       DefaultVersion,
		"EXTRADATA":     "cart-42",
	}
	for k, v := range want {
		if got, _ := p.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if !signing.Verify("secret", p) {
		t.Error("form parameters are not correctly signed")
	}
	if opts.Has("HASH") {
		t.Error("caller options were modified")
	}
}

func TestBuildPaymentFormButtonSchedule(t *testing.T) {
	rr := &recordingRenderer{}
	c := NewClient(domain.Credentials{Identifier: "merchant", Password: "secret"}, rr)

	amount := domain.Schedule(map[string]int64{"2024-01-01": 500, "2024-02-01": 500})
	if _, err := c.BuildPaymentFormButton(amount, "o", "c", "d", HTMLOptions{}, nil); err != nil {
		t.Fatalf("BuildPaymentFormButton() error = %v", err)
	}
	if rr.params.Has("AMOUNT") {
		t.Error("AMOUNT set alongside AMOUNTS")
	}
	if v := rr.params["AMOUNTS"]; !v.IsNested() {
		t.Errorf("AMOUNTS = %+v, want nested", v)
	}
}

func TestBuildAuthorizationFormButtonVersionOverride(t *testing.T) {
	rr := &recordingRenderer{}
	c := NewClient(domain.Credentials{Identifier: "merchant", Password: "secret"}, rr)

	opts := domain.Params{}
	opts.SetString("VERSION", "3.0")
	if _, err := c.BuildAuthorizationFormButton(100, "o", "c", "d", HTMLOptions{}, opts); err != nil {
		t.Fatalf("BuildAuthorizationFormButton() error = %v", err)
	}
	if v, _ := rr.params.Get("VERSION"); v != "3.0" {
		t.Errorf("VERSION = %q, want caller override", v)
	}
	if v, _ := rr.params.Get("OPERATIONTYPE"); v != "authorization" {
		t.Errorf("OPERATIONTYPE = %q", v)
	}
}

func TestHTMLRender(t *testing.T) {
	h := NewHTML("https://secure-test.be2bill.com/")
	if h.Action() != "https://secure-test.be2bill.com/front/form/process" {
		t.Fatalf("Action() = %q", h.Action())
	}

	p := domain.Params{}
	p.SetString("DESCRIPTION", `<b>"quoted"</b>`)
	p.Set("AMOUNTS", domain.Nested(map[string]string{"2024-02-01": "200", "2024-01-01": "100"}))
	p.SetString("HASH", "abc")

	out, err := h.Render(p, HTMLOptions{
		Form:   map[string]string{"id": "pay"},
		Submit: map[string]string{"class": "btn", "title": "Pay"},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	wantParts := []string{
		`<form method="post" action="https://secure-test.be2bill.com/front/form/process" id="pay">`,
		`<input type="hidden" name="AMOUNTS[2024-01-01]" value="100" /><input type="hidden" name="AMOUNTS[2024-02-01]" value="200" />`,
		`<input type="hidden" name="HASH" value="abc" />`,
		`<input type="submit" class="btn" title="Pay" />`,
		`</form>`,
	}
	for _, part := range wantParts {
		if !strings.Contains(out, part) {
			t.Errorf("output missing %q\n%s", part, out)
		}
	}
	if strings.Contains(out, `<b>`) {
		t.Errorf("description not escaped:\n%s", out)
	}
	if strings.Index(out, "AMOUNTS[") > strings.Index(out, `name="DESCRIPTION"`) {
		t.Error("inputs not in key order")
	}
}

func TestHTMLRenderSubmitLabel(t *testing.T) {
	out, err := NewHTML("https://secure-test.be2bill.com").Render(domain.Params{}, HTMLOptions{SubmitLabel: "Pay 12.50 €"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, `<input type="submit" value="Pay 12.50 €" />`) {
		t.Errorf("submit label not rendered:\n%s", out)
	}
}
