package catalog

import (
	"context"
	"fmt"

	"github.com/cuemby/cri-mcp/pkg/schema"
)

type binding interface {
	encode(args schema.Values) (any, error)
	invoke(ctx context.Context, svc *Services, msg any) (any, error)
	decode(resp any) (any, error)
}

// rpc binds one typed backend call. Req and Resp are usually CRI protobuf
// messages, but local tools use plain structs the same way.
type rpc[Req, Resp any] struct {
	enc  func(args schema.Values) (Req, error)
	call func(ctx context.Context, svc *Services, req Req) (Resp, error)
	dec  func(resp Resp) (any, error)
}

func bind[Req, Resp any](
	enc func(args schema.Values) (Req, error),
	call func(ctx context.Context, svc *Services, req Req) (Resp, error),
	dec func(resp Resp) (any, error),
) binding {
	return rpc[Req, Resp]{enc: enc, call: call, dec: dec}
}

func (r rpc[Req, Resp]) encode(args schema.Values) (any, error) {
	return r.enc(args)
}

func (r rpc[Req, Resp]) invoke(ctx context.Context, svc *Services, msg any) (any, error) {
	req, ok := msg.(Req)
	if !ok {
		return nil, fmt.Errorf("unexpected request type %T", msg)
	}
	return r.call(ctx, svc, req)
}

func (r rpc[Req, Resp]) decode(resp any) (any, error) {
	typed, ok := resp.(Resp)
	if !ok {
		return nil, fmt.Errorf("unexpected response type %T", resp)
	}
	return r.dec(typed)
}
