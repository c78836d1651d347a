// Package stream turns raw response chunks into higher-level units.
//
// Chunk boundaries fall wherever the network put them, so a line or an
// event may arrive split across several chunks. The decoders here buffer
// partial input and call back once per complete unit. Their Feed method
// has the apicall.Sink signature:
//
//	dec := stream.SSE(func(ev stream.Event) { fmt.Println(ev.Event, ev.Data) })
//	_, err := handle.QueryFn(ctx, params, dec.Feed)
//	dec.Flush()
//
// Flush delivers whatever the stream ended with when it was not
// terminated by a newline (or, for SSE, a blank line). A decoder belongs
// to one call and is not safe for concurrent use.
package stream
