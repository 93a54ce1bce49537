package directlink

import (
	"context"
	"regexp"
	"strings"

	"github.com/wakala/be2bill/internal/domain"
)

// Operation types.
const (
	OpPayment                      = "payment"
	OpAuthorization                = "authorization"
	OpCredit                       = "credit"
	OpRefund                       = "refund"
	OpCapture                      = "capture"
	OpStopNTimes                   = "stopntimes"
	OpGetTransactions              = "getTransactions"
	OpExportTransactions           = "exportTransactions"
	OpExportChargebacks            = "exportChargebacks"
	OpExportReconciliation         = "exportReconciliation"
	OpExportReconciledTransactions = "exportReconciledTransactions"

	AliasModeOneClick     = "oneclick"
	AliasModeSubscription = "subscription"
)

// Card holds the card fields of a card-present style operation.
type Card struct {
	Code     string
	Validity string
	CVV      string
	FullName string
}

func (c Card) apply(p domain.Params) {
	p.SetString(domain.KeyCardCode, c.Code)
	p.SetString(domain.KeyCardValidity, c.Validity)
	p.SetString(domain.KeyCardCVV, c.CVV)
	p.SetString(domain.KeyCardFullName, c.FullName)
}

// Transaction holds the customer and order fields shared by payment-like
// operations. An empty OrderID is generated.
type Transaction struct {
	OrderID         string
	ClientIdent     string
	ClientEmail     string
	ClientIP        string
	Description     string
	ClientUserAgent string
}

// Period selects a single export day or a STARTDATE/ENDDATE range.
type Period struct {
	Date  string
	Start string
	End   string
}

func Day(date string) Period {
	return Period{Date: date}
}

func Range(start, end string) Period {
	return Period{Start: start, End: end}
}

func (p Period) IsRange() bool {
	return p.Start != "" || p.End != ""
}

func (p Period) apply(params domain.Params) {
	if p.IsRange() {
		delete(params, domain.KeyDate)
		params.SetString(domain.KeyStartDate, p.Start)
		params.SetString(domain.KeyEndDate, p.End)
		return
	}
	delete(params, domain.KeyStartDate)
	delete(params, domain.KeyEndDate)
	params.SetString(domain.KeyDate, p.Date)
}

var (
	httpURLPattern = regexp.MustCompile(`^https?://.+`)
	mailPattern    = regexp.MustCompile(`.+@.+\..{2,}`)
)

// applyDestination routes an export either to a callback URL or to an email
// address. Anything else sets neither field. Compression is always sent.
func applyDestination(p domain.Params, destination, compression string) {
	switch {
	case httpURLPattern.MatchString(destination):
		p.SetString(domain.KeyCallbackURL, destination)
	case mailPattern.MatchString(destination):
		p.SetString(domain.KeyMailTo, destination)
	}
	if compression == "" {
		compression = DefaultCompression
	}
	p.SetString(domain.KeyCompression, compression)
}

func start(opts domain.Params) domain.Params {
	if opts == nil {
		return domain.Params{}
	}
	return opts.Clone()
}

func (c *Client) transaction(ctx context.Context, tx Transaction, params, opts domain.Params) (domain.Result, error) {
	op, _ := params.Get(domain.KeyOperationType)
	params.SetString(domain.KeyOrderID, c.orderID(op, tx.OrderID))
	params.SetString(domain.KeyClientIdent, tx.ClientIdent)
	params.SetString(domain.KeyClientEmail, tx.ClientEmail)
	params.SetString(domain.KeyDescription, tx.Description)
	params.SetString(domain.KeyClientUserAgent, tx.ClientUserAgent)
	params.SetString(domain.KeyClientIP, tx.ClientIP)
	return c.Requests(ctx, c.DirectLinkURLs(), c.finalize(params, opts))
}

// Payment debits a card. A schedule amount makes it an N-times payment.
func (c *Client) Payment(ctx context.Context, card Card, amount domain.Amount, tx Transaction, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	amount.Apply(p)
	p.SetString(domain.KeyOperationType, OpPayment)
	card.apply(p)
	return c.transaction(ctx, tx, p, opts)
}

// Authorization reserves amount on a card for a later Capture.
func (c *Client) Authorization(ctx context.Context, card Card, amount int64, tx Transaction, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	p.SetString(domain.KeyOperationType, OpAuthorization)
	card.apply(p)
	domain.Single(amount).Apply(p)
	return c.transaction(ctx, tx, p, opts)
}

func (c *Client) Credit(ctx context.Context, card Card, amount int64, tx Transaction, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	p.SetString(domain.KeyOperationType, OpCredit)
	card.apply(p)
	domain.Single(amount).Apply(p)
	return c.transaction(ctx, tx, p, opts)
}

// OneClickPayment debits a card previously stored under alias.
func (c *Client) OneClickPayment(ctx context.Context, alias string, amount domain.Amount, tx Transaction, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	amount.Apply(p)
	p.SetString(domain.KeyOperationType, OpPayment)
	p.SetString(domain.KeyAlias, alias)
	p.SetString(domain.KeyAliasMode, AliasModeOneClick)
	return c.transaction(ctx, tx, p, opts)
}

func (c *Client) OneClickAuthorization(ctx context.Context, alias string, amount int64, tx Transaction, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	p.SetString(domain.KeyOperationType, OpAuthorization)
	p.SetString(domain.KeyAlias, alias)
	p.SetString(domain.KeyAliasMode, AliasModeOneClick)
	domain.Single(amount).Apply(p)
	return c.transaction(ctx, tx, p, opts)
}

// SubscriptionPayment debits a recurring alias.
func (c *Client) SubscriptionPayment(ctx context.Context, alias string, amount domain.Amount, tx Transaction, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	amount.Apply(p)
	p.SetString(domain.KeyOperationType, OpPayment)
	p.SetString(domain.KeyAliasMode, AliasModeSubscription)
	p.SetString(domain.KeyAlias, alias)
	return c.transaction(ctx, tx, p, opts)
}

func (c *Client) SubscriptionAuthorization(ctx context.Context, alias string, amount int64, tx Transaction, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	p.SetString(domain.KeyOperationType, OpAuthorization)
	p.SetString(domain.KeyAliasMode, AliasModeSubscription)
	p.SetString(domain.KeyAlias, alias)
	domain.Single(amount).Apply(p)
	return c.transaction(ctx, tx, p, opts)
}

// RedirectForPayment starts a payment on an alternative means of payment.
// The caller may pick the operation type through opts; it defaults to
// payment. The response carries REDIRECTHTML.
func (c *Client) RedirectForPayment(ctx context.Context, amount int64, tx Transaction, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	if !p.Has(domain.KeyOperationType) {
		p.SetString(domain.KeyOperationType, OpPayment)
	}
	domain.Single(amount).Apply(p)
	return c.transaction(ctx, tx, p, opts)
}

// Refund refunds a captured transaction.
func (c *Client) Refund(ctx context.Context, transactionID, orderID, description string, opts domain.Params) (domain.Result, error) {
	return c.followUp(ctx, OpRefund, transactionID, orderID, description, opts)
}

// Capture settles a previous authorization.
func (c *Client) Capture(ctx context.Context, transactionID, orderID, description string, opts domain.Params) (domain.Result, error) {
	return c.followUp(ctx, OpCapture, transactionID, orderID, description, opts)
}

func (c *Client) followUp(ctx context.Context, op, transactionID, orderID, description string, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	p.SetString(domain.KeyOperationType, op)
	p.SetString(domain.KeyDescription, description)
	p.SetString(domain.KeyTransactionID, transactionID)
	p.SetString(domain.KeyOrderID, c.orderID(op, orderID))
	return c.Requests(ctx, c.DirectLinkURLs(), c.finalize(p, opts))
}

// StopNTimes cancels the remaining installments of a schedule.
func (c *Client) StopNTimes(ctx context.Context, scheduleID string, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	p.SetString(domain.KeyOperationType, OpStopNTimes)
	p.SetString(domain.KeyScheduleID, scheduleID)
	return c.Requests(ctx, c.DirectLinkURLs(), c.finalize(p, opts))
}

// GetTransactionsByTransactionID asks for the details of one or more
// transactions, delivered to destination.
func (c *Client) GetTransactionsByTransactionID(ctx context.Context, ids []string, destination, compression string) (domain.Result, error) {
	return c.getTransactions(ctx, domain.KeyTransactionID, ids, destination, compression)
}

func (c *Client) GetTransactionsByOrderID(ctx context.Context, ids []string, destination, compression string) (domain.Result, error) {
	return c.getTransactions(ctx, domain.KeyOrderID, ids, destination, compression)
}

func (c *Client) getTransactions(ctx context.Context, searchBy string, ids []string, destination, compression string) (domain.Result, error) {
	p := domain.Params{}
	p.SetString(domain.KeyOperationType, OpGetTransactions)
	p.SetString(searchBy, strings.Join(ids, ";"))
	applyDestination(p, destination, compression)
	return c.Requests(ctx, c.ExportURLs(), c.finalize(p, nil))
}

func (c *Client) ExportTransactions(ctx context.Context, period Period, destination, compression string, opts domain.Params) (domain.Result, error) {
	return c.export(ctx, OpExportTransactions, c.ExportURLs(), period, destination, compression, opts)
}

func (c *Client) ExportChargebacks(ctx context.Context, period Period, destination, compression string, opts domain.Params) (domain.Result, error) {
	return c.export(ctx, OpExportChargebacks, c.ExportURLs(), period, destination, compression, opts)
}

func (c *Client) ExportReconciliation(ctx context.Context, period Period, destination, compression string, opts domain.Params) (domain.Result, error) {
	return c.export(ctx, OpExportReconciliation, c.ReconciliationURLs(), period, destination, compression, opts)
}

// ExportReconciledTransactions only accepts a single day.
func (c *Client) ExportReconciledTransactions(ctx context.Context, date, destination, compression string, opts domain.Params) (domain.Result, error) {
	return c.export(ctx, OpExportReconciledTransactions, c.ReconciliationURLs(), Day(date), destination, compression, opts)
}

func (c *Client) export(ctx context.Context, op string, urls []string, period Period, destination, compression string, opts domain.Params) (domain.Result, error) {
	p := start(opts)
	p.SetString(domain.KeyOperationType, op)
	period.apply(p)
	applyDestination(p, destination, compression)
	return c.Requests(ctx, urls, c.finalize(p, opts))
}
