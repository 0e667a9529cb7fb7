package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// LockdownClient calls LockdownService over an existing connection.
type LockdownClient struct {
	cc    grpc.ClientConnInterface
	actor string
}

func NewLockdownClient(cc grpc.ClientConnInterface, actor string) *LockdownClient {
	return &LockdownClient{cc: cc, actor: actor}
}

func (c *LockdownClient) GetStatus(ctx context.Context) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetStatus", nil)
}

func (c *LockdownClient) TransitionPhase(ctx context.Context, phase string) (*structpb.Struct, error) {
	return c.invoke(ctx, "TransitionPhase", map[string]any{"phase": phase})
}

func (c *LockdownClient) Rollover(ctx context.Context, businessDate string) (*structpb.Struct, error) {
	return c.invoke(ctx, "Rollover", map[string]any{"business_date": businessDate})
}

func (c *LockdownClient) ReportFailure(ctx context.Context, menuItemIDs []string, reason string, meta map[string]string) (*structpb.Struct, error) {
	items := make([]any, len(menuItemIDs))
	for i, id := range menuItemIDs {
		items[i] = id
	}
	req := map[string]any{
		"menu_item_ids": items,
		"reason":        reason,
	}
	if len(meta) > 0 {
		m := make(map[string]any, len(meta))
		for k, v := range meta {
			m[k] = v
		}
		req["metadata"] = m
	}
	return c.invoke(ctx, "ReportFailure", req)
}

func (c *LockdownClient) ResolveFailure(ctx context.Context, recordID string) (*structpb.Struct, error) {
	return c.invoke(ctx, "ResolveFailure", map[string]any{"record_id": recordID})
}

func (c *LockdownClient) ListActiveFailures(ctx context.Context) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListActiveFailures", nil)
}

func (c *LockdownClient) CanServe(ctx context.Context, menuItemID string) (*structpb.Struct, error) {
	return c.invoke(ctx, "CanServe", map[string]any{"menu_item_id": menuItemID})
}

func (c *LockdownClient) invoke(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	if c.actor != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, ActorMetadataKey, c.actor)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return nil, err
	}
	return out, nil
}
