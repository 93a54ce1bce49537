package directlink

import (
	"github.com/wakala/be2bill/internal/batch"
	"github.com/wakala/be2bill/internal/domain"
	"github.com/wakala/be2bill/internal/form"
	"github.com/wakala/be2bill/internal/sender"
)

// Environment holds the gateway base URLs clients are built against. It is
// a plain value: switching URLs returns a new Environment.
type Environment struct {
	Production domain.Endpoints
	Sandbox    domain.Endpoints
}

// DefaultEnvironment returns the public Dalenys endpoints.
func DefaultEnvironment() Environment {
	return Environment{
		Production: domain.Endpoints{
			"https://secure-magenta1.dalenys.com",
			"https://secure-magenta2.dalenys.com",
		},
		Sandbox: domain.Endpoints{
			"https://secure-test.be2bill.com",
		},
	}
}

// SwitchProductionURLs returns a copy with the production failover order
// reversed.
func (e Environment) SwitchProductionURLs() Environment {
	return Environment{
		Production: e.Production.Reversed(),
		Sandbox:    append(domain.Endpoints(nil), e.Sandbox...),
	}
}

// NewProductionClient builds a client over the production endpoints. A nil
// sender means an HTTP sender with the default timeout.
func (e Environment) NewProductionClient(creds domain.Credentials, s sender.Sender, opts ...Option) (*Client, error) {
	return NewClient(creds, e.Production, orDefault(s), opts...)
}

func (e Environment) NewSandboxClient(creds domain.Credentials, s sender.Sender, opts ...Option) (*Client, error) {
	return NewClient(creds, e.Sandbox, orDefault(s), opts...)
}

// NewProductionFormClient renders forms against the first production URL.
func (e Environment) NewProductionFormClient(creds domain.Credentials, opts ...form.Option) (*form.Client, error) {
	if len(e.Production) == 0 {
		return nil, domain.ErrNoEndpoints
	}
	return form.NewClient(creds, form.NewHTML(e.Production[0]), opts...), nil
}

func (e Environment) NewSandboxFormClient(creds domain.Credentials, opts ...form.Option) (*form.Client, error) {
	if len(e.Sandbox) == 0 {
		return nil, domain.ErrNoEndpoints
	}
	return form.NewClient(creds, form.NewHTML(e.Sandbox[0]), opts...), nil
}

func (e Environment) NewProductionBatch(creds domain.Credentials, s sender.Sender, opts ...batch.Option) (*batch.Processor, error) {
	c, err := e.NewProductionClient(creds, s)
	if err != nil {
		return nil, err
	}
	return batch.NewProcessor(c, opts...), nil
}

func (e Environment) NewSandboxBatch(creds domain.Credentials, s sender.Sender, opts ...batch.Option) (*batch.Processor, error) {
	c, err := e.NewSandboxClient(creds, s)
	if err != nil {
		return nil, err
	}
	return batch.NewProcessor(c, opts...), nil
}

func orDefault(s sender.Sender) sender.Sender {
	if s == nil {
		return sender.NewHTTP()
	}
	return s
}
