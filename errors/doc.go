// Package errors turns ghsign failures into user-facing messages.
//
// Core types:
//   - CLIError: Wraps errors with message, suggestion, and details
//   - ErrorMessenger: Interface for customizing error messages
//
// Explain recognizes missing keys, rate limits, encrypted keys, agent
// failures, unmatched identities, malformed keys and network errors. The
// wrapped error still satisfies the ghsign predicates.
//
// Example usage:
//
//	sig, err := signer.Sign(ctx, data)
//	if err != nil {
//	    fmt.Fprintln(os.Stderr, errors.Explain(err))
//	    os.Exit(1)
//	}
//
//	// Wrap with custom messages
//	type MyMessenger struct{ errors.DefaultMessenger }
//	func (m MyMessenger) AgentUnavailableMessage() (string, string) {
//	    return "No agent.", "Run 'myapp agent start'."
//	}
//
//	wrapped := errors.Explain(err, errors.WithMessenger(MyMessenger{}))
package errors
