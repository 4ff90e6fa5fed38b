package continuity

// AppearanceState is a named canonical visual descriptor for a character,
// e.g. a "default" versus "captive" look. ForbiddenTraits lists the trait
// keywords that must not be re-described in prompts once continuity has been
// established for this state; an empty list falls back to DefaultForbiddenTraits.
type AppearanceState struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	ForbiddenTraits []string `json:"forbiddenTraits,omitempty"`
}

// CharacterProfile is the per-character canonical descriptor. ContinuityRef
// points at the segment or asset where the character's continuity was
// established; while empty the character has not yet appeared and full
// description is legitimate.
type CharacterProfile struct {
	Name          string                     `json:"name"`
	CurrentState  string                     `json:"currentState,omitempty"`
	ContinuityRef string                     `json:"continuityRef,omitempty"`
	States        map[string]AppearanceState `json:"states,omitempty"`
}

// DefaultForbiddenTraits is used when a character's current appearance state
// defines no forbidden trait list of its own.
var DefaultForbiddenTraits = []string{
	"eyes", "hair", "skin", "beard", "face", "build", "height", "age",
	"wardrobe", "clothing", "outfit", "attire", "complexion", "features",
	"physique", "frame",
}

// forbiddenTraits resolves the active trait list for the profile.
func (p CharacterProfile) forbiddenTraits() []string {
	if state, ok := p.States[p.CurrentState]; ok && len(state.ForbiddenTraits) > 0 {
		return state.ForbiddenTraits
	}
	return DefaultForbiddenTraits
}
