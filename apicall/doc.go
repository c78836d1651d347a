// Package apicall defines HTTP API calls declaratively and executes them.
//
// A call is described by an OptionsFunc that maps parameters to a
// Descriptor. Define binds it to a name and a Dispatcher and returns a
// Handle whose QueryFn is the single entry point a data-fetching layer
// calls:
//
//	hc, _ := nethttp.New(nethttp.Config{})
//	d, _ := apicall.NewDispatcher(hc, apicall.Config{BaseURL: base})
//	users, _ := d.Define("users.list", func(p apicall.Params) apicall.Descriptor {
//	    return apicall.Descriptor{Endpoint: util.GenerateEndpoint("/users", p), Method: apicall.MethodGet}
//	})
//	data, err := users.QueryFn(ctx, apicall.Params{"page": 2}, nil)
//
// Each QueryFn performs exactly one transport dispatch. A non-streaming
// call resolves with the decoded JSON body. A streaming call delivers
// every body chunk to the sink, in order, and resolves with nil at end
// of stream. Failures are classified as:
//
//   - whatever the transport returned, unmodified
//   - *HTTPError for any non-2xx status
//   - *ProtocolError when a streaming response has no body or no sink
//     was supplied
//   - a wrapped encoding/json error when a 2xx body is not valid JSON
//
// apicall neither retries nor times out; cancellation is carried only by
// the context handed to the transport and the body reader.
package apicall
