// Package resilience provides reliability and fault tolerance patterns for the
// application. It includes circuit breakers and retry logic used around the
// external collaborators this system depends on: the NLP enrichment service,
// feed fetching, and webhook delivery.
//
// Usage example:
//
//	cb := circuitbreaker.New(circuitbreaker.NLPAPIConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callExternalService()
//	})
//
//	err := retry.WithBackoff(ctx, retry.NLPAPIConfig(), func() error {
//	    return performOperation()
//	})
package resilience
