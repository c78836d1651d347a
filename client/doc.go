// Package client assembles a ready-to-use API client from one Config:
// the HTTP transport, request interceptors, resilience middleware,
// telemetry and a Dispatcher for defining API handles.
//
//	cfg, err := client.Load("billing")
//	c, err := client.New(cfg)
//	if err := c.Start(ctx); err != nil { ... }
//	defer c.Stop(context.Background())
//
//	invoices, _ := c.Define("invoices", func(p apicall.Params) apicall.Descriptor {
//	    return apicall.Descriptor{Endpoint: util.GenerateEndpoint("/invoices", p), Method: apicall.MethodGet}
//	})
package client
