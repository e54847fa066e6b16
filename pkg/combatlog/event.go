package combatlog

import "strings"

// Kind identifies one of the closed set of event variants.
type Kind int

const (
	UnknownKind   Kind = 0
	HeroKilled    Kind = 1
	ItemPurchased Kind = 2
	SpellCast     Kind = 3
	DamageDealt   Kind = 4
)

var kindNames = map[Kind]string{ //nolint:gochecknoglobals
	HeroKilled:    "HERO_KILLED",
	ItemPurchased: "ITEM_PURCHASED",
	SpellCast:     "SPELL_CAST",
	DamageDealt:   "DAMAGE_DONE",
}

func (k Kind) String() string {
	name, found := kindNames[k]
	if !found {
		return "UNKNOWN"
	}

	return name
}

// ParseKind maps the stored name of a kind back to its value.
func ParseKind(name string) Kind {
	for kind, kindName := range kindNames {
		if strings.EqualFold(kindName, name) {
			return kind
		}
	}

	return UnknownKind
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{HeroKilled, ItemPurchased, SpellCast, DamageDealt}
}

// Event is implemented by the four event variants only. Callers branch on the concrete type (or Kind)
// before reading any variant specific field.
type Event interface {
	Kind() Kind
	event()
}

// HeroKilledEvt is emitted when a hero dies to another hero.
type HeroKilledEvt struct {
	Actor  string `json:"actor"`
	Target string `json:"target"`
}

func (HeroKilledEvt) Kind() Kind { return HeroKilled }
func (HeroKilledEvt) event()     {}

// ItemPurchasedEvt is emitted when a hero buys an item.
type ItemPurchasedEvt struct {
	Actor string `json:"actor"`
	Item  string `json:"item"`
}

func (ItemPurchasedEvt) Kind() Kind { return ItemPurchased }
func (ItemPurchasedEvt) event()     {}

// SpellCastEvt is emitted when a hero casts an ability. Level is 0 when the log line did not carry one.
type SpellCastEvt struct {
	Actor   string `json:"actor"`
	Ability string `json:"ability"`
	Level   int    `json:"level"`
}

func (SpellCastEvt) Kind() Kind { return SpellCast }
func (SpellCastEvt) event()     {}

// DamageDealtEvt is emitted for every damage instance. Damage is 0 when the amount could not be read.
type DamageDealtEvt struct {
	Actor   string `json:"actor"`
	Target  string `json:"target"`
	Ability string `json:"ability"`
	Damage  int64  `json:"damage"`
}

func (DamageDealtEvt) Kind() Kind { return DamageDealt }
func (DamageDealtEvt) event()     {}

// Entry is a single event bound to its match and position in time.
type Entry struct {
	MatchID int64
	// Timestamp is the offset from the start of the match in milliseconds.
	Timestamp int64
	Event     Event
}

func (e Entry) Kind() Kind {
	if e.Event == nil {
		return UnknownKind
	}

	return e.Event.Kind()
}

// Actor returns the name of the entity performing the action, or an empty string when it was not
// present in the source line.
func (e Entry) Actor() string {
	switch evt := e.Event.(type) {
	case HeroKilledEvt:
		return evt.Actor
	case ItemPurchasedEvt:
		return evt.Actor
	case SpellCastEvt:
		return evt.Actor
	case DamageDealtEvt:
		return evt.Actor
	default:
		return ""
	}
}
