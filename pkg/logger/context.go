package logger

import (
	"context"
)

type ctxKeyDetails struct{}

type ctxValue struct {
	Super   *ctxValue
	Details []Detail
}

// ContextWith returns a context that carries the given details.
// Every log call made with the returned context will include them.
func ContextWith(ctx context.Context, ds ...Detail) context.Context {
	if len(ds) == 0 {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var v ctxValue
	if prev, ok := lookupValue(ctx); ok {
		v.Super = prev
	}
	v.Details = append(v.Details, ds...)
	return context.WithValue(ctx, ctxKeyDetails{}, &v)
}

func getDetailsFromContext(ctx context.Context) []Detail {
	if ctx == nil {
		return nil
	}
	v, ok := lookupValue(ctx)
	if !ok {
		return nil
	}
	var chain []*ctxValue
	for ; v != nil; v = v.Super {
		chain = append(chain, v)
	}
	var ds []Detail
	for i := len(chain) - 1; 0 <= i; i-- {
		ds = append(ds, chain[i].Details...)
	}
	return ds
}

func lookupValue(ctx context.Context) (*ctxValue, bool) {
	if ptr, ok := ctx.Value(ctxKeyDetails{}).(*ctxValue); ok {
		return ptr, true
	}
	return nil, false
}
