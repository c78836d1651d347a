package adapter

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kbukum/apikit/auth"
	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/transport"
	"github.com/kbukum/apikit/util"
)

// HeaderRequestID carries the correlation id set by RequestID.
const HeaderRequestID = "X-Request-ID"

// JSONHeaders sets Accept to application/json and, unless the request
// already declares one, Content-Type to application/json.
func JSONHeaders() RequestInterceptor {
	return func(ctx context.Context, req *transport.Request) (context.Context, error) {
		req.Header.Set("Accept", "application/json")
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		return ctx, nil
	}
}

// RequestID ensures every request carries an X-Request-ID. An id already
// on the request or in the context is reused; otherwise a UUID is
// generated. The id is put in the context so later log lines carry it.
func RequestID() RequestInterceptor {
	return func(ctx context.Context, req *transport.Request) (context.Context, error) {
		id := req.Header.Get(HeaderRequestID)
		if id == "" {
			if fromCtx, ok := logger.RequestIDFromContext(ctx); ok && fromCtx != "" {
				id = fromCtx
			} else {
				id = uuid.NewString()
			}
			req.Header.Set(HeaderRequestID, id)
		}
		return logger.ContextWithRequestID(ctx, id), nil
	}
}

// BearerToken sets Authorization from store. Nothing is set when the
// request already has credentials, the store is empty, or the token is a
// JWT whose exp has passed.
func BearerToken(store auth.TokenStore) RequestInterceptor {
	return func(ctx context.Context, req *transport.Request) (context.Context, error) {
		if req.Header.Get("Authorization") != "" {
			return ctx, nil
		}
		token, err := store.Token(ctx)
		if errors.Is(err, auth.ErrNoToken) {
			return ctx, nil
		}
		if err != nil {
			return ctx, err
		}
		if auth.Expired(token) {
			logger.Get("adapter").WithContext(ctx).Debug("skipping expired session token",
				logger.Fields(logger.FieldEndpoint, req.Endpoint))
			return ctx, nil
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return ctx, nil
	}
}

// LogRequests logs each outgoing request at debug level.
// Authorization values are masked.
func LogRequests(log *logger.Logger) RequestInterceptor {
	return func(ctx context.Context, req *transport.Request) (context.Context, error) {
		fields := logger.RequestFields("", req.Method, req.Endpoint, req.Streaming)
		if authz := req.Header.Get("Authorization"); authz != "" {
			fields["authorization"] = util.MaskSecret(authz, len("Bearer ")+4)
		}
		log.WithContext(ctx).Debug("http request", fields)
		return ctx, nil
	}
}

// LogResponses logs each response status at debug level, or warn for
// 5xx.
func LogResponses(log *logger.Logger) ResponseInterceptor {
	return func(ctx context.Context, req *transport.Request, resp *transport.Response) error {
		fields := logger.Fields(
			logger.FieldMethod, req.Method,
			logger.FieldEndpoint, req.Endpoint,
			logger.FieldStatus, resp.Status,
		)
		if resp.Status >= 500 {
			log.WithContext(ctx).Warn("http response", fields)
		} else {
			log.WithContext(ctx).Debug("http response", fields)
		}
		return nil
	}
}

// WithLogging registers LogRequests and LogResponses.
func WithLogging(log *logger.Logger) Option {
	return func(a *Adapter) {
		a.requests = append(a.requests, LogRequests(log))
		a.responses = append(a.responses, LogResponses(log))
	}
}
