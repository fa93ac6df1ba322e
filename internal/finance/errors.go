package finance

import (
	"fmt"
	"strings"
)

// NotFoundError is returned by Cache.Get for a symbol that was never stored.
type NotFoundError struct {
	Symbol string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("symbol %s is not cached", e.Symbol)
}

// SymbolNotFoundError means the provider's search returned no candidates.
type SymbolNotFoundError struct {
	Symbol string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("no match found for symbol %q", e.Symbol)
}

// AmbiguousSymbolError means the best search candidate was not an exact match.
// Candidates keep the provider's order.
type AmbiguousSymbolError struct {
	Symbol     string
	Candidates []SymbolMatch
}

func (e *AmbiguousSymbolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "symbol %q is ambiguous, did you mean one of:", e.Symbol)
	for _, c := range e.Candidates {
		b.WriteString(" ")
		b.WriteString(c.String())
		b.WriteString(";")
	}
	return strings.TrimSuffix(b.String(), ";")
}

// ProviderError wraps any transport, quota or auth failure from the market
// data provider. Message is the provider's text, shown to the user as is.
type ProviderError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("provider request %s failed with status %d", e.Endpoint, e.StatusCode)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// SymbolError ties a batch failure to the symbol that caused it. Err is the
// underlying failure, kept intact so its message can be shown on its own.
type SymbolError struct {
	Symbol string
	Err    error
}

func (e *SymbolError) Error() string { return e.Symbol + ": " + e.Err.Error() }

func (e *SymbolError) Unwrap() error { return e.Err }
