// Package probe walks a candidate list against a target and stops at the
// first candidate the server serves.
package probe

import (
	"context"

	"github.com/PentesterFlow/webete/internal/errors"
	httpc "github.com/PentesterFlow/webete/internal/http"
	"github.com/PentesterFlow/webete/internal/logger"
)

// Getter is the part of the HTTP client the prober needs.
type Getter interface {
	Get(ctx context.Context, url string) (*httpc.Response, error)
}

// Observer is told about each request and its outcome.
type Observer interface {
	Request(url string)
	Result(statusCode int)
}

// Hit is the first candidate that answered 200.
type Hit struct {
	Candidate  string
	URL        string
	StatusCode int
	Body       []byte
	Requests   int
}

// Prober issues one request per candidate, in order, until one returns 200.
type Prober struct {
	client   Getter
	observer Observer
	log      *logger.Logger
	onResp   func(*httpc.Response)
}

// New creates a prober. observer and log may be nil.
func New(client Getter, observer Observer, log *logger.Logger) *Prober {
	if log == nil {
		log = logger.Nop()
	}
	return &Prober{client: client, observer: observer, log: log.WithComponent("probe")}
}

// OnResponse registers a hook called with every response received.
func (p *Prober) OnResponse(fn func(*httpc.Response)) {
	p.onResp = fn
}

// First requests prefix+candidate for each candidate in order. ok is false
// when every candidate was tried and none returned 200; that is a normal
// outcome and err is nil. A transport error stops the walk and is returned.
func (p *Prober) First(ctx context.Context, prefix string, candidates []string) (*Hit, bool, error) {
	for i, candidate := range candidates {
		url := prefix + candidate

		if p.observer != nil {
			p.observer.Request(url)
		}

		resp, err := p.client.Get(ctx, url)
		if err != nil {
			return nil, false, err
		}

		if p.onResp != nil {
			p.onResp(resp)
		}
		if p.observer != nil {
			p.observer.Result(resp.StatusCode)
		}
		p.log.ProbeEvent(url, resp.StatusCode, len(resp.Body), resp.Duration)

		if resp.StatusCode == 200 {
			return &Hit{
				Candidate:  candidate,
				URL:        url,
				StatusCode: resp.StatusCode,
				Body:       resp.Body,
				Requests:   i + 1,
			}, true, nil
		}

		if e := errors.CategorizeHTTPStatus(resp.StatusCode, url); e != nil {
			p.log.WithURL(url).WithField("category", e.Type.String()).Debug("candidate not served")
		}
	}

	p.log.Debugf("no candidate found after %d requests", len(candidates))
	return nil, false, nil
}
