package domain

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestAmountApply(t *testing.T) {
	tests := []struct {
		name   string
		amount Amount
		want   string
		nested map[string]string
	}{
		{"single", Single(1050), "1050", nil},
		{"zero", Single(0), "0", nil},
		{"schedule", Schedule(map[string]int64{"2024-02-01": 500, "2024-01-01": 550}), "", map[string]string{
			"2024-01-01": "550",
			"2024-02-01": "500",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Params{}
			p.SetString(KeyAmount, "stale")
			p.Set(KeyAmounts, Nested(map[string]string{"x": "1"}))
			tt.amount.Apply(p)

			if tt.nested == nil {
				if got, _ := p.Get(KeyAmount); got != tt.want {
					t.Errorf("AMOUNT = %q, want %q", got, tt.want)
				}
				if p.Has(KeyAmounts) {
					t.Error("AMOUNTS left next to AMOUNT")
				}
				return
			}
			if p.Has(KeyAmount) {
				t.Error("AMOUNT left next to AMOUNTS")
			}
			v := p[KeyAmounts]
			if !v.IsNested() || len(v.SubKeys()) != len(tt.nested) {
				t.Fatalf("AMOUNTS = %+v", v)
			}
			for d, want := range tt.nested {
				if got, _ := v.Sub(d); got != want {
					t.Errorf("AMOUNTS[%s] = %q, want %q", d, got, want)
				}
			}
		})
	}
}

func TestParamsFromRecord(t *testing.T) {
	r := Record{"ORDERID": "o1", "AMOUNT": "100"}
	p := ParamsFromRecord(r.Clone())
	r["ORDERID"] = "changed"

	if got, _ := p.Get("ORDERID"); got != "o1" {
		t.Errorf("ORDERID = %q, want o1", got)
	}
	if keys := p.Keys(); len(keys) != 2 || keys[0] != "AMOUNT" || keys[1] != "ORDERID" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestResultRedirectHTML(t *testing.T) {
	markup := `<form action="https://pay.example"></form>`

	t.Run("decoded", func(t *testing.T) {
		r := Result{ResultRedirect: base64.StdEncoding.EncodeToString([]byte(markup))}
		got, err := r.RedirectHTML()
		if err != nil || got != markup {
			t.Errorf("RedirectHTML() = %q, %v", got, err)
		}
	})
	t.Run("absent", func(t *testing.T) {
		_, err := Result{ResultExecCode: "4001"}.RedirectHTML()
		if !errors.Is(err, ErrNoRedirect) {
			t.Errorf("error = %v, want ErrNoRedirect", err)
		}
	})
	t.Run("invalid base64", func(t *testing.T) {
		_, err := Result{ResultRedirect: "%%%"}.RedirectHTML()
		if err == nil || errors.Is(err, ErrNoRedirect) {
			t.Errorf("error = %v, want decode error", err)
		}
	})
}

func TestResultSucceeded(t *testing.T) {
	var none Result
	if none.Succeeded() {
		t.Error("nil result succeeded")
	}
	if len(none.Keys()) != 0 {
		t.Error("nil result has keys")
	}
	if !(Result{ResultExecCode: ExecCodeSuccess}).Succeeded() {
		t.Error("0000 not a success")
	}
}
