package battle

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// LapseType classifies when a tag is checked or ticked down.
type LapseType int

const (
	// LapsePreMove runs before the first failure check of a move.
	LapsePreMove LapseType = iota
	// LapseMove runs after the first failure check, before execution.
	LapseMove
	LapseAfterMove
	LapseMoveEffect
	LapseTurnEnd
	// LapseHit runs for any incoming hit, including one taken by a substitute.
	LapseHit
	// LapseAfterHit runs for direct hits only.
	LapseAfterHit
	// LapseCustom never runs in an automatic sweep.
	LapseCustom
)

var lapseNames = [...]string{"pre_move", "move", "after_move", "move_effect", "turn_end", "hit", "after_hit", "custom"}

func (l LapseType) String() string {
	if int(l) >= 0 && int(l) < len(lapseNames) {
		return lapseNames[l]
	}
	return fmt.Sprintf("lapse(%d)", int(l))
}

// BattlerTagType identifies a combatant-scoped tag.
type BattlerTagType int

const (
	TagConfused BattlerTagType = iota + 1
	TagFlinched
	TagProtected
	TagSeeded
	TagBound
	TagPerishSong
	TagCharging
	TagRecharging
	TagSubstitute
	TagDrowsy
	TagStockpiling
	TagRage
	TagEndure
)

var battlerTagNames = map[BattlerTagType]string{
	TagConfused:    "confused",
	TagFlinched:    "flinched",
	TagProtected:   "protected",
	TagSeeded:      "seeded",
	TagBound:       "bound",
	TagPerishSong:  "perish_song",
	TagCharging:    "charging",
	TagRecharging:  "recharging",
	TagSubstitute:  "substitute",
	TagDrowsy:      "drowsy",
	TagStockpiling: "stockpiling",
	TagRage:        "rage",
	TagEndure:      "endure",
}

func (t BattlerTagType) String() string {
	if n, ok := battlerTagNames[t]; ok {
		return n
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// ParseBattlerTagType resolves a battler tag name as used in data files.
func ParseBattlerTagType(name string) (BattlerTagType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range battlerTagNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown battler tag %q", name)
}

// RemoveReason tells onRemove why a tag is going away.
type RemoveReason int

const (
	// RemoveExpired means the turn counter reached zero.
	RemoveExpired RemoveReason = iota
	// RemoveLapsed means the lapse handler asked for removal.
	RemoveLapsed
	// RemoveCleared means the owner left the field or the tag was removed
	// explicitly.
	RemoveCleared
)

// Indefinite is the turn count of a tag that never counts down.
const Indefinite = 0

// BattlerTag is one active tag. It refers to its owner by ID only.
type BattlerTag struct {
	Type       BattlerTagType `json:"type"`
	TurnsLeft  int            `json:"turns_left"`
	LapseTypes []LapseType    `json:"lapse_types"`
	OwnerID    int            `json:"owner_id"`
	SourceID   int            `json:"source_id"`
	SourceMove int            `json:"source_move"`
	SourceSlot BattlerIndex   `json:"source_slot"`
	// Data holds per-type state such as a substitute's remaining HP.
	Data int `json:"data,omitempty"`

	counted bool
}

// Counted reports whether the tag was created with a turn limit.
func (t *BattlerTag) Counted() bool { return t.counted }

func (t *BattlerTag) subscribes(lt LapseType) bool {
	for _, l := range t.LapseTypes {
		if l == lt {
			return true
		}
	}
	return false
}

// tagBehavior is the per-type rule set of a battler tag. Nil hooks are no-ops;
// a nil lapse keeps the tag and leaves expiry to its counter.
type tagBehavior struct {
	lapseTypes []LapseType
	maxStacks  int
	canAdd     func(b *Battle, owner *Combatant) bool
	onAdd      func(b *Battle, owner *Combatant, tag *BattlerTag)
	onRemove   func(b *Battle, owner *Combatant, tag *BattlerTag, reason RemoveReason)
	onOverlap  func(b *Battle, owner *Combatant, existing *BattlerTag)
	lapse      func(b *Battle, owner *Combatant, tag *BattlerTag, lt LapseType) bool
}

func behaviorOf(t BattlerTagType) *tagBehavior {
	beh, ok := tagBehaviors[t]
	if !ok {
		panic(fmt.Errorf("battle: no behavior for battler tag %d", int(t)))
	}
	return beh
}

// TagRegistry owns every combatant-scoped tag in a battle, keyed by owner ID.
type TagRegistry struct {
	b    *Battle
	tags map[int][]*BattlerTag
}

func newTagRegistry(b *Battle) *TagRegistry {
	return &TagRegistry{b: b, tags: make(map[int][]*BattlerTag)}
}

// AddOptions carries the optional attribution of a new tag.
type AddOptions struct {
	SourceMove int
	Source     *Combatant
}

// Add attaches a tag of type t to owner for turns turns (Indefinite for no
// limit). If the owner already has the type, the existing tag's overlap hook
// runs and Add fails, unless the type stacks and is below its limit.
func (r *TagRegistry) Add(owner *Combatant, t BattlerTagType, turns int, opts AddOptions) bool {
	beh := behaviorOf(t)
	existing := r.instances(owner.id, t)
	if len(existing) >= max(1, beh.maxStacks) {
		if beh.onOverlap != nil {
			beh.onOverlap(r.b, owner, existing[0])
		}
		return false
	}
	if !r.b.canAddTag(owner, t, beh) {
		return false
	}

	tag := &BattlerTag{
		Type:       t,
		TurnsLeft:  turns,
		LapseTypes: beh.lapseTypes,
		OwnerID:    owner.id,
		SourceMove: opts.SourceMove,
		SourceSlot: NoSlot,
		counted:    turns > 0,
	}
	if opts.Source != nil {
		tag.SourceID = opts.Source.id
		tag.SourceSlot = opts.Source.slot
	}
	r.tags[owner.id] = append(r.tags[owner.id], tag)
	r.b.emit(EventTagAdded{Target: RefCombatant(owner), Tag: t, Turns: turns})
	if beh.onAdd != nil {
		beh.onAdd(r.b, owner, tag)
	}
	return true
}

// Get returns the first tag of type t on the owner, or nil.
func (r *TagRegistry) Get(ownerID int, t BattlerTagType) *BattlerTag {
	for _, tag := range r.tags[ownerID] {
		if tag.Type == t {
			return tag
		}
	}
	return nil
}

// Has reports whether the owner has a tag of type t.
func (r *TagRegistry) Has(ownerID int, t BattlerTagType) bool {
	return r.Get(ownerID, t) != nil
}

// Count returns how many instances of t the owner has.
func (r *TagRegistry) Count(ownerID int, t BattlerTagType) int {
	return len(r.instances(ownerID, t))
}

// All returns copies of the owner's tags in the order they were added.
func (r *TagRegistry) All(ownerID int) []BattlerTag {
	out := make([]BattlerTag, len(r.tags[ownerID]))
	for i, tag := range r.tags[ownerID] {
		out[i] = *tag
	}
	return out
}

func (r *TagRegistry) instances(ownerID int, t BattlerTagType) []*BattlerTag {
	var out []*BattlerTag
	for _, tag := range r.tags[ownerID] {
		if tag.Type == t {
			out = append(out, tag)
		}
	}
	return out
}

// Remove drops every instance of t from the owner.
func (r *TagRegistry) Remove(ownerID int, t BattlerTagType) bool {
	removed := false
	for _, tag := range r.instances(ownerID, t) {
		r.remove(tag, RemoveCleared)
		removed = true
	}
	return removed
}

// ClearOwner drops all of the owner's tags, as on switch-out or faint.
func (r *TagRegistry) ClearOwner(ownerID int) {
	for _, tag := range append([]*BattlerTag(nil), r.tags[ownerID]...) {
		r.remove(tag, RemoveCleared)
	}
	delete(r.tags, ownerID)
}

// Lapse sweeps the owner's tags that subscribe to lt. Each handler reports
// whether its tag persists; counted tags are then ticked down and removed at
// zero whatever the handler said. LapseCustom is never swept.
func (r *TagRegistry) Lapse(ownerID int, lt LapseType) {
	if lt == LapseCustom {
		return
	}
	owner := r.b.Combatant(ownerID)
	if owner == nil {
		return
	}
	for _, tag := range append([]*BattlerTag(nil), r.tags[ownerID]...) {
		if !tag.subscribes(lt) || !r.present(tag) {
			continue
		}
		persist := true
		if beh := behaviorOf(tag.Type); beh.lapse != nil {
			persist = beh.lapse(r.b, owner, tag, lt)
		}
		if !r.present(tag) {
			continue
		}
		if tag.counted {
			tag.TurnsLeft--
			if tag.TurnsLeft <= 0 {
				r.remove(tag, RemoveExpired)
				continue
			}
		}
		if !persist {
			r.remove(tag, RemoveLapsed)
		}
	}
}

// LapseCustom runs the CUSTOM lapse of the owner's tag of type t. The turn
// counter is not touched. It reports whether the tag existed and persists.
func (r *TagRegistry) LapseCustom(ownerID int, t BattlerTagType) bool {
	tag := r.Get(ownerID, t)
	owner := r.b.Combatant(ownerID)
	if tag == nil || owner == nil || !tag.subscribes(LapseCustom) {
		return false
	}
	persist := true
	if beh := behaviorOf(t); beh.lapse != nil {
		persist = beh.lapse(r.b, owner, tag, LapseCustom)
	}
	if !persist && r.present(tag) {
		r.remove(tag, RemoveLapsed)
	}
	return persist
}

func (r *TagRegistry) present(tag *BattlerTag) bool {
	for _, t := range r.tags[tag.OwnerID] {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *TagRegistry) remove(tag *BattlerTag, reason RemoveReason) {
	list := r.tags[tag.OwnerID]
	for i, t := range list {
		if t == tag {
			r.tags[tag.OwnerID] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	owner := r.b.Combatant(tag.OwnerID)
	if owner == nil {
		return
	}
	r.b.logger.Debug("battler tag removed",
		zap.Stringer("tag", tag.Type), zap.Int("owner", tag.OwnerID), zap.Int("reason", int(reason)))
	r.b.emit(EventTagRemoved{Target: RefCombatant(owner), Tag: tag.Type, Reason: reason})
	if beh := behaviorOf(tag.Type); beh.onRemove != nil {
		beh.onRemove(r.b, owner, tag, reason)
	}
}
