package acl

import (
	"context"
	"errors"
	"fmt"

	"emstrack-acl/internal/domain"
	"emstrack-acl/internal/permission"
)

// Check decides a request that matched a rule's pattern
type Check func(ctx context.Context, e *Engine, ev *evaluation) (bool, error)

// Rule one entry of the ordered rule table
type Rule struct {
	Name    string
	Access  domain.AccessKind
	Pattern Pattern
	Check   Check
}

type evaluation struct {
	req  Request
	user *domain.User
}

func rule(name string, access domain.AccessKind, pattern string, check Check) Rule {
	return Rule{Name: name, Access: access, Pattern: ParsePattern(pattern), Check: check}
}

// DefaultRules EMSTrack topic rules, in priority order.
func DefaultRules() []Rule {
	return []Rule{
		// subscribe
		rule("settings", domain.Subscribe, "settings", allow),
		rule("user-profile", domain.Subscribe, "user/{username}/profile", allow),
		rule("user-error", domain.Subscribe, "user/{username}/error", allow),
		rule("hospital-data", domain.Subscribe, "hospital/{hospital}/data", readable(domain.Hospital, 1)),
		rule("equipment-metadata", domain.Subscribe, "equipment/{holder}/metadata", readable(domain.Equipment, 1)),
		rule("equipment-item-data", domain.Subscribe, "equipment/{holder}/item/+/data", readable(domain.Equipment, 1)),
		rule("ambulance-data", domain.Subscribe, "ambulance/{ambulance}/data", readable(domain.Ambulance, 1)),
		rule("ambulance-call-status", domain.Subscribe, "ambulance/{ambulance}/call/{call}/status", readable(domain.Ambulance, 1)),
		rule("call-data", domain.Subscribe, "call/{call}/data", callReadable(1)),

		// publish
		rule("message", domain.Publish, "message", superuser),
		rule("client-error", domain.Publish, "user/{username}/client/{clientid}/error", allow),
		rule("client-status", domain.Publish, "user/{username}/client/{clientid}/status", allow),
		rule("client-ambulance-data", domain.Publish,
			"user/{username}/client/{clientid}/ambulance/{ambulance}/data", writable(domain.Ambulance, 5)),
		rule("client-ambulance-call-status", domain.Publish,
			"user/{username}/client/{clientid}/ambulance/{ambulance}/call/{call}/status", writable(domain.Ambulance, 5)),
		rule("client-ambulance-waypoint-data", domain.Publish,
			"user/{username}/client/{clientid}/ambulance/{ambulance}/call/{call}/waypoint/{waypoint}/data", writable(domain.Ambulance, 5)),
		rule("client-hospital-data", domain.Publish,
			"user/{username}/client/{clientid}/hospital/{hospital}/data", writable(domain.Hospital, 5)),
		// The holder id is read from segment 1 (the username slot), not from {holder}.
		rule("client-equipment-item-data", domain.Publish,
			"user/{username}/client/{clientid}/equipment/{holder}/item/+/data", writable(domain.Equipment, 1)),
	}
}

func allow(context.Context, *Engine, *evaluation) (bool, error) {
	return true, nil
}

func superuser(_ context.Context, _ *Engine, ev *evaluation) (bool, error) {
	return ev.user.IsSuperuser, nil
}

func readable(kind domain.ResourceKind, segment int) Check {
	return func(ctx context.Context, e *Engine, ev *evaluation) (bool, error) {
		id, err := ev.req.Topic.ID(segment)
		if err != nil {
			return false, err
		}
		return e.perms.CheckCanRead(ctx, ev.user, domain.ResourceRef{Kind: kind, ID: id})
	}
}

func writable(kind domain.ResourceKind, segment int) Check {
	return func(ctx context.Context, e *Engine, ev *evaluation) (bool, error) {
		id, err := ev.req.Topic.ID(segment)
		if err != nil {
			return false, err
		}
		return e.perms.CheckCanWrite(ctx, ev.user, domain.ResourceRef{Kind: kind, ID: id})
	}
}

// callReadable allows when the user can read any ambulance assigned to the call
func callReadable(segment int) Check {
	return func(ctx context.Context, e *Engine, ev *evaluation) (bool, error) {
		callID, err := ev.req.Topic.ID(segment)
		if err != nil {
			return false, err
		}
		call, err := e.calls.GetCall(ctx, callID)
		if err != nil {
			return false, err
		}
		for _, ambulanceID := range call.AmbulanceIDs {
			ok, err := e.perms.CheckCanRead(ctx, ev.user, domain.AmbulanceRef(ambulanceID))
			switch {
			case err == nil && ok:
				return true, nil
			case err == nil, errors.Is(err, permission.ErrResourceNotFound):
				continue
			default:
				return false, fmt.Errorf("call %d: %w", callID, err)
			}
		}
		return false, nil
	}
}
