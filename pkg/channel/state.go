package channel

import (
	"reflect"
)

// State - struct holding information about state of a single channel
type State struct {
	IsLive      *bool
	IsRecording *bool
	Viewers     *int32
	Title       *string
	Game        *string
}

// NewState - constructor
func NewState() *State {
	return &State{}
}

// Merge - Merges non-nil values of an argument to the state.
// Returns ptr to new state if changes
// Returns ptr to old state if not changed
func (state *State) Merge(stateUpdate *State) *State {
	newState := &State{}
	changed := false

	currReflect := reflect.ValueOf(state).Elem()
	newReflect := reflect.ValueOf(newState).Elem()
	patchReflect := reflect.ValueOf(stateUpdate).Elem()

	for i := 0; i < currReflect.NumField(); i++ {
		currField := currReflect.Field(i)
		newField := newReflect.Field(i)
		patchField := patchReflect.Field(i)

		source := currField
		if !patchField.IsNil() {
			if currField.IsNil() || !reflect.DeepEqual(currField.Elem().Interface(), patchField.Elem().Interface()) {
				changed = true
			}

			source = patchField
		}

		if !source.IsNil() {
			// Copy value so that the states never share pointers
			value := reflect.New(source.Elem().Type())
			value.Elem().Set(source.Elem())
			newField.Set(value)
		}
	}

	if changed {
		return newState
	}

	return state
}

// AsMap - returns set fields keyed by their publishing name
func (state *State) AsMap() map[string]interface{} {
	m := make(map[string]interface{})

	if state.IsLive != nil {
		m["is_live"] = *state.IsLive
	}

	if state.IsRecording != nil {
		m["is_recording"] = *state.IsRecording
	}

	if state.Viewers != nil {
		m["viewers"] = *state.Viewers
	}

	if state.Title != nil {
		m["title"] = *state.Title
	}

	if state.Game != nil {
		m["game"] = *state.Game
	}

	return m
}

// SetIsLive - mutates field, returns itself
func (state *State) SetIsLive(value bool) *State {
	state.IsLive = &value
	return state
}

// GetIsLive - returns value or false if not set
func (state *State) GetIsLive() bool {
	return state.IsLive != nil && *state.IsLive
}

// SetIsRecording - mutates field, returns itself
func (state *State) SetIsRecording(value bool) *State {
	state.IsRecording = &value
	return state
}

// GetIsRecording - returns value or false if not set
func (state *State) GetIsRecording() bool {
	return state.IsRecording != nil && *state.IsRecording
}

// SetViewers - mutates field, returns itself
func (state *State) SetViewers(value int32) *State {
	state.Viewers = &value
	return state
}

// GetViewers - returns value or 0 if not set
func (state *State) GetViewers() int32 {
	if state.Viewers == nil {
		return 0
	}

	return *state.Viewers
}

// SetTitle - mutates field, returns itself
func (state *State) SetTitle(value string) *State {
	state.Title = &value
	return state
}

// SetGame - mutates field, returns itself
func (state *State) SetGame(value string) *State {
	state.Game = &value
	return state
}
