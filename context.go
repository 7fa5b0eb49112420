package goSession

import "context"

// requestInfo is the caller metadata copied into audit events.
type requestInfo struct {
	ip        string
	userAgent string
}

type requestInfoKey struct{}

// WithRequestInfo attaches the caller's address and User-Agent to ctx for
// audit records.
func WithRequestInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, requestInfo{ip: ip, userAgent: userAgent})
}

// WithClientIP sets only the address, keeping any User-Agent already on ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	info := requestInfoFrom(ctx)
	return WithRequestInfo(ctx, ip, info.userAgent)
}

// WithUserAgent sets only the User-Agent, keeping any address already on ctx.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	info := requestInfoFrom(ctx)
	return WithRequestInfo(ctx, info.ip, userAgent)
}

func requestInfoFrom(ctx context.Context) requestInfo {
	if ctx == nil {
		return requestInfo{}
	}
	info, _ := ctx.Value(requestInfoKey{}).(requestInfo)
	return info
}
