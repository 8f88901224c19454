package model

import "fmt"

// ActionType names a cryptomoji transition.
type ActionType string

const (
	ActionCreateOwner      ActionType = "CREATE_OWNER"
	ActionCreateCollection ActionType = "CREATE_COLLECTION"
	ActionSelectSire       ActionType = "SELECT_SIRE"
	ActionBreedMoji        ActionType = "BREED_MOJI"
)

// Known reports whether t belongs to the action vocabulary.
func (t ActionType) Known() bool {
	switch t {
	case ActionCreateOwner, ActionCreateCollection, ActionSelectSire, ActionBreedMoji:
		return true
	default:
		return false
	}
}

// Action is the decoded transaction payload.
//
//	CREATE_OWNER       {name}
//	CREATE_COLLECTION  {}
//	SELECT_SIRE        {sire}            sire is a moji address
//	BREED_MOJI         {sire, breeder}   not yet applied by the processor
type Action struct {
	Action  ActionType `json:"action"`
	Breeder string     `json:"breeder,omitempty"`
	Name    string     `json:"name,omitempty"`
	Sire    string     `json:"sire,omitempty"`
}

func CreateOwner(name string) Action { return Action{Action: ActionCreateOwner, Name: name} }
func CreateCollection() Action       { return Action{Action: ActionCreateCollection} }
func SelectSire(moji string) Action  { return Action{Action: ActionSelectSire, Sire: moji} }

func BreedMoji(sire, breeder string) Action {
	return Action{Action: ActionBreedMoji, Sire: sire, Breeder: breeder}
}

// EncodeAction returns the payload bytes for a.
func EncodeAction(a Action) ([]byte, error) {
	if a.Action == "" {
		return nil, fmt.Errorf("model: action is required")
	}
	return encode(a)
}

// DecodeAction parses payload bytes into an Action. It rejects empty input,
// malformed JSON, unknown fields, trailing data and a missing action field.
// Unrecognized action values decode successfully; dispatch rejects them.
func DecodeAction(payload []byte) (Action, error) {
	var a Action
	if err := decodeStrict(payload, &a); err != nil {
		return Action{}, err
	}
	if a.Action == "" {
		return Action{}, fmt.Errorf("model: missing action")
	}
	return a, nil
}
