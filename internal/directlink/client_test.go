package directlink

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/wakala/be2bill/internal/domain"
	"github.com/wakala/be2bill/internal/sender"
	"github.com/wakala/be2bill/internal/signing"
)

type reply struct {
	body  string
	err   error
	retry bool
}

// scriptedSender answers per URL and records every call.
type scriptedSender struct {
	replies map[string]reply
	urls    []string
	forms   []url.Values
	retry   bool
}

func (s *scriptedSender) Send(_ context.Context, u string, form url.Values) ([]byte, error) {
	s.urls = append(s.urls, u)
	s.forms = append(s.forms, form)
	r, ok := s.replies[u]
	if !ok {
		r = reply{body: `{"EXECCODE":"0000","MESSAGE":"ok"}`}
	}
	s.retry = r.retry
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.body), nil
}

func (s *scriptedSender) ShouldRetry() bool { return s.retry }

var creds = domain.Credentials{Identifier: "merchant", Password: "secret"}

func newTestClient(t *testing.T, s sender.Sender, urls ...string) *Client {
	t.Helper()
	if len(urls) == 0 {
		urls = []string{"https://a.example", "https://b.example"}
	}
	c, err := NewClient(creds, domain.Endpoints(urls), s)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

// sent rebuilds the signed parameters from a recorded form.
func sent(t *testing.T, form url.Values) domain.Params {
	t.Helper()
	values := url.Values{}
	for k, v := range form {
		if k == "method" {
			continue
		}
		// params[KEY] or params[KEY][SUB] -> KEY or KEY[SUB]
		inner := k[len("params[") : len(k)-1]
		if i := strings.Index(inner, "]["); i >= 0 {
			inner = inner[:i] + "[" + inner[i+2:] + "]"
		}
		values[inner] = v
	}
	return domain.ParseForm(values)
}

func TestRequestsFailover(t *testing.T) {
	tests := []struct {
		name      string
		replies   map[string]reply
		wantCalls []string
		wantErr   bool
	}{
		{
			name:      "first endpoint answers",
			replies:   map[string]reply{},
			wantCalls: []string{"https://a.example/x"},
		},
		{
			name: "transient failure moves on",
			replies: map[string]reply{
				"https://a.example/x": {err: errors.New("connection refused"), retry: true},
			},
			wantCalls: []string{"https://a.example/x", "https://b.example/x"},
		},
		{
			name: "terminal failure stops",
			replies: map[string]reply{
				"https://a.example/x": {err: context.DeadlineExceeded, retry: false},
			},
			wantCalls: []string{"https://a.example/x"},
			wantErr:   true,
		},
		{
			name: "undecodable body without retry stops",
			replies: map[string]reply{
				"https://a.example/x": {body: "<html>maintenance</html>"},
			},
			wantCalls: []string{"https://a.example/x"},
			wantErr:   true,
		},
		{
			name: "all endpoints fail",
			replies: map[string]reply{
				"https://a.example/x": {err: errors.New("reset"), retry: true},
				"https://b.example/x": {body: "", retry: true},
			},
			wantCalls: []string{"https://a.example/x", "https://b.example/x"},
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &scriptedSender{replies: tt.replies}
			c := newTestClient(t, s)
			p := domain.Params{}
			p.SetString(domain.KeyOperationType, "payment")

			res, err := c.Requests(context.Background(), []string{"https://a.example/x", "https://b.example/x"}, p)
			if tt.wantErr {
				if !errors.Is(err, ErrRequestFailed) {
					t.Errorf("Requests() error = %v, want ErrRequestFailed", err)
				}
				if res != nil {
					t.Errorf("Requests() result = %v, want nil", res)
				}
			} else if err != nil || res.ExecCode() != "0000" {
				t.Errorf("Requests() = %v, %v", res, err)
			}
			if len(s.urls) != len(tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", s.urls, tt.wantCalls)
			}
			for i := range s.urls {
				if s.urls[i] != tt.wantCalls[i] {
					t.Errorf("call %d = %s, want %s", i, s.urls[i], tt.wantCalls[i])
				}
			}
			if got := s.forms[0].Get("method"); got != "payment" {
				t.Errorf("method = %q", got)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	res, ok := decode([]byte(` {"EXECCODE":"0000","AMOUNT":100,"3DSECURE":false,"EXTRA":{"a":1},"LIST":[1,2]} `))
	if !ok {
		t.Fatal("decode() failed")
	}
	want := domain.Result{
		"EXECCODE": "0000",
		"AMOUNT":   "100",
		"3DSECURE": "false",
		"EXTRA":    `{"a":1}`,
		"LIST":     "[1,2]",
	}
	for k, v := range want {
		if res[k] != v {
			t.Errorf("%s = %q, want %q", k, res[k], v)
		}
	}

	for _, body := range []string{"", "   ", "null", "[1]", "{}", "not json", `"str"`} {
		if _, ok := decode([]byte(body)); ok {
			t.Errorf("decode(%q) succeeded", body)
		}
	}
}

func TestPaymentPrecedence(t *testing.T) {
	s := &scriptedSender{}
	c := newTestClient(t, s)

	opts := domain.Params{}
	opts.SetString(domain.KeyIdentifier, "spoofed")
	opts.SetString(domain.KeyCardCode, "0000")
	opts.SetString("3DSECURE", "yes")
	opts.SetString(domain.KeyHash, "bogus")

	card := Card{Code: "4111111111111111", Validity: "12-30", CVV: "123", FullName: "Jane Doe"}
	tx := Transaction{OrderID: "order-1", ClientIdent: "client", ClientEmail: "j@example.com", ClientIP: "1.2.3.4", Description: "shoes", ClientUserAgent: "ua"}
	if _, err := c.Payment(context.Background(), card, domain.Single(1000), tx, opts); err != nil {
		t.Fatalf("Payment() error = %v", err)
	}

	if s.urls[0] != "https://a.example"+DirectLinkPath {
		t.Errorf("url = %s", s.urls[0])
	}
	p := sent(t, s.forms[0])
	want := map[string]string{
		"IDENTIFIER":    "merchant",
		"OPERATIONTYPE": "payment",
		"CARDCODE":      "4111111111111111",
		"AMOUNT":        "1000",
		"ORDERID":       "order-1",
		"CLIENTEMAIL":   "j@example.com",
		"VERSION":       DefaultVersion,
		"3DSECURE":      "yes",
	}
	for k, v := range want {
		if got, _ := p.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if !signing.Verify("secret", p) {
		t.Error("request HASH does not verify")
	}
	if opts.Has(domain.KeyVersion) {
		t.Error("caller options were modified")
	}
}

func TestVersionOverride(t *testing.T) {
	s := &scriptedSender{}
	c := newTestClient(t, s)
	c.SetVersion("2.5")

	if _, err := c.Refund(context.Background(), "A1", "o1", "refund", nil); err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if v, _ := sent(t, s.forms[0]).Get(domain.KeyVersion); v != "2.5" {
		t.Errorf("VERSION = %q, want client version", v)
	}

	opts := domain.Params{}
	opts.SetString(domain.KeyVersion, "3.0")
	if _, err := c.Capture(context.Background(), "A1", "o1", "capture", opts); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	p := sent(t, s.forms[1])
	if v, _ := p.Get(domain.KeyVersion); v != "3.0" {
		t.Errorf("VERSION = %q, want caller override", v)
	}
	if v, _ := p.Get(domain.KeyOperationType); v != OpCapture {
		t.Errorf("OPERATIONTYPE = %q", v)
	}
}

func TestAmountBranching(t *testing.T) {
	s := &scriptedSender{}
	c := newTestClient(t, s)

	opts := domain.Params{}
	opts.SetString(domain.KeyAmount, "999")

	schedule := domain.Schedule(map[string]int64{"2024-01-01": 500, "2024-02-01": 500})
	if _, err := c.OneClickPayment(context.Background(), "alias-1", schedule, Transaction{OrderID: "o"}, opts); err != nil {
		t.Fatalf("OneClickPayment() error = %v", err)
	}
	p := sent(t, s.forms[0])
	if p.Has(domain.KeyAmount) {
		t.Error("AMOUNT sent alongside AMOUNTS")
	}
	amounts := p[domain.KeyAmounts]
	if v, _ := amounts.Sub("2024-02-01"); v != "500" {
		t.Errorf("AMOUNTS[2024-02-01] = %q", v)
	}
	if v, _ := p.Get(domain.KeyAliasMode); v != AliasModeOneClick {
		t.Errorf("ALIASMODE = %q", v)
	}
	if !signing.Verify("secret", p) {
		t.Error("request HASH does not verify")
	}
}

func TestRedirectForPaymentOperationType(t *testing.T) {
	s := &scriptedSender{}
	c := newTestClient(t, s)

	if _, err := c.RedirectForPayment(context.Background(), 100, Transaction{OrderID: "o"}, nil); err != nil {
		t.Fatalf("RedirectForPayment() error = %v", err)
	}
	opts := domain.Params{}
	opts.SetString(domain.KeyOperationType, "authorization")
	if _, err := c.RedirectForPayment(context.Background(), 100, Transaction{OrderID: "o"}, opts); err != nil {
		t.Fatalf("RedirectForPayment() error = %v", err)
	}
	if got := s.forms[0].Get("method"); got != OpPayment {
		t.Errorf("default method = %q", got)
	}
	if got := s.forms[1].Get("method"); got != "authorization" {
		t.Errorf("caller method = %q", got)
	}
}

func TestOrderIDDefault(t *testing.T) {
	s := &scriptedSender{}
	c, err := NewClient(creds, domain.Endpoints{"https://a.example"}, s, WithClock(clockz.NewFakeClock()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := c.Refund(context.Background(), "A1", "", "d", nil); err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	id, _ := sent(t, s.forms[0]).Get(domain.KeyOrderID)
	if !regexp.MustCompile(`^refund-\d+-[0-9a-f]{8}$`).MatchString(id) {
		t.Errorf("generated ORDERID = %q", id)
	}
}

func TestExports(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *Client) error
		path   string
		want   map[string]string
		absent []string
	}{
		{
			name: "transactions to url",
			call: func(c *Client) error {
				_, err := c.ExportTransactions(context.Background(), Day("2024-01-31"), "https://merchant.example/cb", "", nil)
				return err
			},
			path:   ExportPath,
			want:   map[string]string{"OPERATIONTYPE": OpExportTransactions, "DATE": "2024-01-31", "CALLBACKURL": "https://merchant.example/cb", "COMPRESSION": "GZIP"},
			absent: []string{"MAILTO", "STARTDATE"},
		},
		{
			name: "chargebacks range to mail",
			call: func(c *Client) error {
				_, err := c.ExportChargebacks(context.Background(), Range("2024-01-01", "2024-01-31"), "ops@merchant.example", "ZIP", nil)
				return err
			},
			path:   ExportPath,
			want:   map[string]string{"OPERATIONTYPE": OpExportChargebacks, "STARTDATE": "2024-01-01", "ENDDATE": "2024-01-31", "MAILTO": "ops@merchant.example", "COMPRESSION": "ZIP"},
			absent: []string{"CALLBACKURL", "DATE"},
		},
		{
			name: "reconciliation to unknown destination",
			call: func(c *Client) error {
				_, err := c.ExportReconciliation(context.Background(), Day("2024-01"), "nowhere", "", nil)
				return err
			},
			path:   ReconciliationPath,
			want:   map[string]string{"OPERATIONTYPE": OpExportReconciliation, "DATE": "2024-01", "COMPRESSION": "GZIP"},
			absent: []string{"CALLBACKURL", "MAILTO"},
		},
		{
			name: "reconciled transactions",
			call: func(c *Client) error {
				_, err := c.ExportReconciledTransactions(context.Background(), "2024-01-15", "http://merchant.example", "", nil)
				return err
			},
			path: ReconciliationPath,
			want: map[string]string{"OPERATIONTYPE": OpExportReconciledTransactions, "DATE": "2024-01-15", "CALLBACKURL": "http://merchant.example"},
		},
		{
			name: "transactions by id",
			call: func(c *Client) error {
				_, err := c.GetTransactionsByTransactionID(context.Background(), []string{"A1", "A2"}, "ops@merchant.example", "")
				return err
			},
			path: ExportPath,
			want: map[string]string{"OPERATIONTYPE": OpGetTransactions, "TRANSACTIONID": "A1;A2", "MAILTO": "ops@merchant.example", "COMPRESSION": "GZIP", "VERSION": DefaultVersion},
		},
		{
			name: "transactions by order id",
			call: func(c *Client) error {
				_, err := c.GetTransactionsByOrderID(context.Background(), []string{"o1"}, "", "")
				return err
			},
			path:   ExportPath,
			want:   map[string]string{"OPERATIONTYPE": OpGetTransactions, "ORDERID": "o1", "COMPRESSION": "GZIP"},
			absent: []string{"CALLBACKURL", "MAILTO"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &scriptedSender{}
			c := newTestClient(t, s)
			if err := tt.call(c); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if s.urls[0] != "https://a.example"+tt.path {
				t.Errorf("url = %s, want path %s", s.urls[0], tt.path)
			}
			p := sent(t, s.forms[0])
			for k, v := range tt.want {
				if got, _ := p.Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
			for _, k := range tt.absent {
				if p.Has(k) {
					t.Errorf("%s unexpectedly set", k)
				}
			}
			if id, _ := p.Get(domain.KeyIdentifier); id != "merchant" {
				t.Errorf("IDENTIFIER = %q", id)
			}
			if !signing.Verify("secret", p) {
				t.Error("request HASH does not verify")
			}
		})
	}
}

func TestStopNTimes(t *testing.T) {
	s := &scriptedSender{}
	c := newTestClient(t, s)
	if _, err := c.StopNTimes(context.Background(), "SCH-1", nil); err != nil {
		t.Fatalf("StopNTimes() error = %v", err)
	}
	p := sent(t, s.forms[0])
	if v, _ := p.Get(domain.KeyScheduleID); v != "SCH-1" {
		t.Errorf("SCHEDULEID = %q", v)
	}
	if s.forms[0].Get("method") != OpStopNTimes {
		t.Errorf("method = %q", s.forms[0].Get("method"))
	}
}

func TestClientAccessors(t *testing.T) {
	c := newTestClient(t, &scriptedSender{})
	if c.Identifier() != "merchant" {
		t.Errorf("Identifier() = %q", c.Identifier())
	}
	urls := c.DirectLinkURLs()
	if len(urls) != 2 || urls[1] != "https://b.example"+DirectLinkPath {
		t.Errorf("DirectLinkURLs() = %v", urls)
	}
	if err := c.SetURLs(nil); !errors.Is(err, domain.ErrNoEndpoints) {
		t.Errorf("SetURLs(nil) error = %v", err)
	}
	if err := c.SetURLs(domain.Endpoints{"https://c.example"}); err != nil {
		t.Fatalf("SetURLs() error = %v", err)
	}
	if got := c.DirectLinkURLs(); len(got) != 1 || got[0] != "https://c.example"+DirectLinkPath {
		t.Errorf("DirectLinkURLs() = %v", got)
	}

	p := domain.Params{}
	p.SetString("A", "1")
	p.SetString(domain.KeyHash, c.Hash(p))
	if !c.CheckHash(p) {
		t.Error("CheckHash() rejected own hash")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(creds, nil, &scriptedSender{}); !errors.Is(err, domain.ErrNoEndpoints) {
		t.Errorf("NewClient(no endpoints) error = %v", err)
	}
	if _, err := NewClient(creds, domain.Endpoints{"https://a.example"}, nil); err == nil {
		t.Error("NewClient(nil sender) succeeded")
	}
}

// TestFailoverOverHTTP runs the real sender against two test servers: the
// first one is down, the second answers.
func TestFailoverOverHTTP(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	downURL := down.URL
	down.Close()

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("params[IDENTIFIER]") != "merchant" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"EXECCODE":"0000","TRANSACTIONID":"A42"}`))
	}))
	defer up.Close()

	s := sender.NewHTTP(sender.WithTimeout(2 * time.Second))
	c, err := NewClient(creds, domain.Endpoints{downURL, up.URL}, s)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	res, err := c.Refund(context.Background(), "A1", "o1", "refund", nil)
	if err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if res["TRANSACTIONID"] != "A42" {
		t.Errorf("result = %v", res)
	}
}
