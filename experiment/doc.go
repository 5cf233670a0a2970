/*
Package experiment provides a control/candidate experiment engine for
verifying a rewritten code path against the trusted one it replaces, in
production, without changing what callers receive.

# Experiments

An Experiment runs a trusted control behavior alongside any number of
candidate behaviors, captures one Observation per behavior (value, failure,
wall-clock timing), evaluates the candidates against the control, publishes
the evaluated Result through a Handler, and returns the control's outcome to
the caller as if the candidates had never run.

Experiments are immutable values: every builder method returns a new
Experiment and never mutates its receiver, so a base configuration can
safely seed many concurrent runs.

# Behaviors

A Behavior is a named function under measurement. Exactly one behavior is
registered as the control via AddControl; all others are candidates added
via AddCandidate. Behaviors execute sequentially in a fresh random order on
every run so that systematic ordering effects, such as cache warm-up, do
not bias the comparison.

# Handlers

A Handler supplies run policy: whether the experiment is enabled, where
results are published, and what happens when one of the engine-invoked
callbacks fails. DefaultHandler is always enabled, publishes nowhere, and
escalates every callback failure. Implementations embed DefaultHandler and
override only what they need. Shipped implementations live in the publish
and config packages.

# Guarded operations

The engine invokes comparators, cleaners, ignore predicates, the enabled
gate, the run-if gate, and publish as guarded operations: a failure never
crashes the run directly but is routed to the Handler's Raised hook (for
returned errors) or Thrown hook (for panics). The default hooks re-signal,
so guarded failures are fatal unless a Handler overrides them to swallow;
a swallowed failure makes the operation yield its falsy fallback instead.

# Basic usage

	exp, err := experiment.New[float64]("widget-pricing").
		AddControl(func(ctx context.Context) (float64, error) {
			return legacyPrice(ctx, widget)
		})
	if err != nil {
		return err
	}
	exp, err = exp.AddCandidate("rewrite", func(ctx context.Context) (float64, error) {
		return rewrittenPrice(ctx, widget)
	})
	if err != nil {
		return err
	}

	price, err := exp.WithHandler(handler).Run(ctx)
*/
package experiment
