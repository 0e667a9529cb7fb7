package grpcapi

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	ccpdto "github.com/LavaJover/shvark-lockdown-service/internal/usecase/dto/ccp"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/gate"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// ActorMetadataKey carries the caller identity when the request body has no actor field.
const ActorMetadataKey = "x-actor"

type LockdownHandler struct {
	gateUc gate.GateUsecase
}

func NewLockdownHandler(gateUc gate.GateUsecase) *LockdownHandler {
	return &LockdownHandler{gateUc: gateUc}
}

func (h *LockdownHandler) GetStatus(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(statusToMap(h.gateUc.Status()))
}

func (h *LockdownHandler) TransitionPhase(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	target, err := domain.ParseDayPhase(stringField(r, "phase"))
	if err != nil {
		return nil, toStatusError(err)
	}
	phase, err := h.gateUc.TransitionPhase(ctx, target, actorFrom(ctx, r))
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"phase": string(phase)})
}

func (h *LockdownHandler) Rollover(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	if err := h.gateUc.Rollover(ctx, stringField(r, "business_date"), actorFrom(ctx, r)); err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(statusToMap(h.gateUc.Status()))
}

func (h *LockdownHandler) ReportFailure(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	items, err := stringListField(r, "menu_item_ids")
	if err != nil {
		return nil, toStatusError(err)
	}
	meta, err := stringMapField(r, "metadata")
	if err != nil {
		return nil, toStatusError(err)
	}

	record, err := h.gateUc.ReportFailure(ctx, &ccpdto.ReportFailureInput{
		MenuItemIDs: items,
		Reason:      stringField(r, "reason"),
		Actor:       actorFrom(ctx, r),
		Metadata:    meta,
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"record": recordToMap(record)})
}

func (h *LockdownHandler) ResolveFailure(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	record, err := h.gateUc.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{
		RecordID: stringField(r, "record_id"),
		Actor:    actorFrom(ctx, r),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return toStruct(map[string]any{"record": recordToMap(record)})
}

func (h *LockdownHandler) ListActiveFailures(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	active := h.gateUc.ListActive()
	failures := make([]any, len(active))
	for i, record := range active {
		failures[i] = recordToMap(record)
	}
	return toStruct(map[string]any{"failures": failures})
}

func (h *LockdownHandler) CanServe(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	itemID := stringField(r, "menu_item_id")
	if itemID == "" {
		return nil, toStatusError(fmt.Errorf("%w: menu_item_id is required", domain.ErrInvalidInput))
	}
	return toStruct(map[string]any{
		"menu_item_id": itemID,
		"can_serve":    h.gateUc.CanServe(itemID),
		"phase":        string(h.gateUc.CurrentPhase()),
	})
}

func actorFrom(ctx context.Context, r *structpb.Struct) string {
	if actor := stringField(r, "actor"); actor != "" {
		return actor
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(ActorMetadataKey); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func stringField(r *structpb.Struct, key string) string {
	if r == nil {
		return ""
	}
	return r.GetFields()[key].GetStringValue()
}

func stringListField(r *structpb.Struct, key string) ([]string, error) {
	v, ok := r.GetFields()[key]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %s must be a list of strings", domain.ErrInvalidInput, key)
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a list of strings", domain.ErrInvalidInput, key)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

func stringMapField(r *structpb.Struct, key string) (map[string]string, error) {
	v, ok := r.GetFields()[key]
	if !ok {
		return nil, nil
	}
	obj := v.GetStructValue()
	if obj == nil {
		return nil, fmt.Errorf("%w: %s must be an object of strings", domain.ErrInvalidInput, key)
	}
	out := make(map[string]string, len(obj.GetFields()))
	for k, item := range obj.GetFields() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s must be a string", domain.ErrInvalidInput, key, k)
		}
		out[k] = s.StringValue
	}
	return out, nil
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, toStatusError(err)
	}
	return s, nil
}

func stringsToList(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func recordToMap(r *domain.CCPRecord) map[string]any {
	m := map[string]any{
		"id":            r.ID,
		"location_id":   r.LocationID,
		"menu_item_ids": stringsToList(r.MenuItemIDs),
		"reason":        r.Reason,
		"reported_by":   r.ReportedBy,
		"reported_at":   r.ReportedAt.UTC().Format(time.RFC3339Nano),
		"active":        r.IsActive(),
	}
	if r.ResolvedAt != nil {
		m["resolved_at"] = r.ResolvedAt.UTC().Format(time.RFC3339Nano)
		m["resolved_by"] = r.ResolvedBy
	}
	if len(r.Metadata) > 0 {
		meta := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		m["metadata"] = meta
	}
	return m
}

func statusToMap(s domain.GateStatus) map[string]any {
	return map[string]any{
		"location_id":           s.LocationID,
		"business_date":         s.BusinessDate,
		"phase":                 string(s.Phase),
		"is_locked":             s.Lockdown.IsLocked,
		"blocked_menu_item_ids": stringsToList(s.Lockdown.BlockedMenuItemIDs),
		"active_failure_count":  s.Lockdown.ActiveFailureCount,
	}
}
