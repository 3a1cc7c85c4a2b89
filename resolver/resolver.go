// Package resolver dispatches DID resolution to per-method handlers
// without callers knowing which concrete method implementation produced
// a document.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"

	"github.com/veridian/go-identity-sdk/credential/vp"
	"github.com/veridian/go-identity-sdk/did"
)

// ErrUnsupportedMethod is returned when no handler is attached for an
// identifier's method.
var ErrUnsupportedMethod = errors.New("unsupported DID method")

// HandlerError wraps a failure produced by a resolution handler, naming
// the identifier whose resolution failed.
type HandlerError struct {
	DID did.DID
	Err error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("resolution of %q failed: %v", e.DID, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Handler resolves an identifier of one method to its document. Handlers
// may suspend on network I/O and must honor ctx cancellation.
type Handler func(ctx context.Context, d did.DID) (did.Document, error)

// Resolver is a method-keyed registry of resolution handlers. Attach
// handlers during setup; resolution is safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates an empty resolver.
func New() *Resolver {
	return &Resolver{handlers: make(map[string]Handler)}
}

// AttachHandler registers a handler for a method name. A handler already
// attached for the same method is replaced, never merged.
func (r *Resolver) AttachHandler(method string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[method] = handler
}

// SupportedMethods returns the attached method names, sorted.
func (r *Resolver) SupportedMethods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := maps.Keys(r.handlers)
	sort.Strings(methods)
	return methods
}

// Resolve resolves a single identifier through the handler attached for
// its method.
func (r *Resolver) Resolve(ctx context.Context, d did.DID) (did.Document, error) {
	r.mu.RLock()
	handler, ok := r.handlers[d.Method]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (identifier %q)", ErrUnsupportedMethod, d.Method, d)
	}

	doc, err := handler(ctx, d)
	if err != nil {
		return nil, &HandlerError{DID: d, Err: err}
	}
	return doc, nil
}

// ResolveString parses an identifier string and resolves it.
func (r *Resolver) ResolveString(ctx context.Context, s string) (did.Document, error) {
	d, err := did.Parse(s)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, d)
}

// ResolveMultiple resolves every identifier concurrently. The result is
// all-or-nothing: either every identifier resolved, keyed by identifier,
// or the first failure is returned, naming the offending identifier;
// partial maps are never surfaced. In-flight sibling resolutions are
// cancelled through the group context on first failure.
func (r *Resolver) ResolveMultiple(ctx context.Context, dids []did.DID) (map[did.DID]did.Document, error) {
	unique := make([]did.DID, 0, len(dids))
	seen := make(map[did.DID]struct{}, len(dids))
	for _, d := range dids {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}

	docs := make([]did.Document, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range unique {
		i, d := i, d
		g.Go(func() error {
			doc, err := r.Resolve(gctx, d)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := make(map[did.DID]did.Document, len(unique))
	for i, d := range unique {
		resolved[d] = docs[i]
	}
	return resolved, nil
}

// ResolvePresentationHolder extracts the holder identifier from a signed
// presentation and resolves it. No signature is verified here.
func (r *Resolver) ResolvePresentationHolder(ctx context.Context, rawPresentation []byte) (did.Document, error) {
	holder, err := vp.ExtractHolder(rawPresentation)
	if err != nil {
		return nil, fmt.Errorf("failed to extract presentation holder: %w", err)
	}
	return r.Resolve(ctx, holder)
}

// ResolvePresentationIssuers extracts the issuer of every credential
// embedded in a signed presentation and resolves them all.
func (r *Resolver) ResolvePresentationIssuers(ctx context.Context, rawPresentation []byte) (map[did.DID]did.Document, error) {
	issuers, err := vp.ExtractIssuers(rawPresentation)
	if err != nil {
		return nil, fmt.Errorf("failed to extract presentation issuers: %w", err)
	}
	return r.ResolveMultiple(ctx, issuers)
}
