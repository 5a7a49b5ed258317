package session

// Action is the single store operation chosen for a request.
type Action int

const (
	// ActionNone writes nothing.
	ActionNone Action = iota
	// ActionCreate stores the payload under a freshly generated id.
	ActionCreate
	// ActionUpdate rewrites the payload and expiry of the current id.
	ActionUpdate
	// ActionTouch refreshes the expiry of the current id.
	ActionTouch
	// ActionDestroy deletes the original id.
	ActionDestroy
	// ActionRegenerate deletes the original id, then stores the payload
	// under a freshly generated id.
	ActionRegenerate
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionTouch:
		return "touch"
	case ActionDestroy:
		return "destroy"
	case ActionRegenerate:
		return "regenerate"
	default:
		return "unknown"
	}
}

// Input is the before/after snapshot of one request's session.
type Input struct {
	OriginalID   string
	OriginalData Values
	CurrentID    string
	CurrentData  Values
	Changed      bool
}

// Decision is the outcome of Resolve.
type Decision struct {
	Action Action
	// SessionID is the id written or touched. For create and regenerate it
	// is the newly generated id.
	SessionID string
	// DestroyID is the id removed by destroy and regenerate.
	DestroyID string
	// Data is the payload written by create, update and regenerate.
	Data Values
	// ClearCookie asks the finalizer to invalidate the client cookie.
	ClearCookie bool
}

// Resolve picks the action for in. Rules are applied in order:
//
//  1. no current data: nothing when there was never an id, a cookie clear
//     when the id had nothing stored, otherwise destroy the original id;
//  2. the id changed or is empty: regenerate, or create when nothing was
//     stored under the original id;
//  3. changed: update;
//  4. otherwise: touch.
//
// generate is only called for create and regenerate.
func Resolve(in Input, generate IDGenerator) (Decision, error) {
	if in.CurrentData == nil {
		switch {
		case in.OriginalID == "":
			return Decision{Action: ActionNone}, nil
		case in.OriginalData == nil:
			return Decision{Action: ActionNone, ClearCookie: true}, nil
		default:
			return Decision{
				Action:      ActionDestroy,
				DestroyID:   in.OriginalID,
				ClearCookie: true,
			}, nil
		}
	}

	if in.CurrentID != in.OriginalID || in.CurrentID == "" {
		id, err := generate()
		if err != nil {
			return Decision{}, err
		}

		if in.OriginalID == "" || in.OriginalData == nil {
			return Decision{Action: ActionCreate, SessionID: id, Data: in.CurrentData}, nil
		}
		return Decision{
			Action:    ActionRegenerate,
			SessionID: id,
			DestroyID: in.OriginalID,
			Data:      in.CurrentData,
		}, nil
	}

	if in.Changed {
		return Decision{Action: ActionUpdate, SessionID: in.CurrentID, Data: in.CurrentData}, nil
	}

	return Decision{Action: ActionTouch, SessionID: in.CurrentID}, nil
}
