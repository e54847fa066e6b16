package combatlog

import (
	"errors"
	"math"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

// DedupMode controls how structurally identical events are handled when building a collection.
type DedupMode string

const (
	// DedupNone keeps every event in source order.
	DedupNone DedupMode = "none"
	// DedupLegacy collapses value-equal events into the first occurrence. Two kills of the same hero by
	// the same actor at the same millisecond become a single event.
	DedupLegacy DedupMode = "legacy"
)

const (
	defaultMinTimestampDigits = 2
	timestampFields           = 4
)

// Weights for the hour, minute, second and millisecond fields.
var timestampWeights = [timestampFields]int64{3_600_000, 60_000, 1_000, 1} //nolint:gochecknoglobals

type Options struct {
	// Workers is the upper bound of goroutines used by Build. Defaults to runtime.NumCPU.
	Workers int `mapstructure:"workers"`
	// Dedup selects the accumulation strategy. Defaults to DedupNone.
	Dedup DedupMode `mapstructure:"dedup"`
	// MinTimestampDigits is the shortest digit run considered a clock field. Single digits such as the
	// ability level in "(lvl 2)" are skipped with the default of 2.
	MinTimestampDigits int `mapstructure:"min_timestamp_digits"`
}

// Parser holds the compiled patterns for a set of Keywords. It is immutable after creation and safe for
// concurrent use.
type Parser struct {
	keywords Keywords
	opts     Options
	prefixes []string
	actions  []string

	rxDigits      *regexp.Regexp
	rxKillTarget  *regexp.Regexp
	rxKillActor   *regexp.Regexp
	rxBuyActor    *regexp.Regexp
	rxBuyItem     *regexp.Regexp
	rxCastActor   *regexp.Regexp
	rxCastLevel   *regexp.Regexp
	rxCastAbility *regexp.Regexp
	rxHitActor    *regexp.Regexp
	rxHitTarget   *regexp.Regexp
	rxHitAbility  *regexp.Regexp
	rxHitDamage   *regexp.Regexp
}

func New(keywords Keywords, opts Options) *Parser {
	keywords = keywords.withDefaults()

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	if opts.Dedup == "" {
		opts.Dedup = DedupNone
	}

	if opts.MinTimestampDigits <= 0 {
		opts.MinTimestampDigits = defaultMinTimestampDigits
	}

	quote := regexp.QuoteMeta
	token := `(\w+)`

	return &Parser{
		keywords: keywords,
		opts:     opts,
		prefixes: []string{keywords.HeroPrefix, keywords.ItemPrefix},
		actions:  []string{keywords.Cast, keywords.Kill, keywords.Buy, keywords.Hit},

		rxDigits:      regexp.MustCompile(`\d{` + strconv.Itoa(opts.MinTimestampDigits) + `,}`),
		rxKillTarget:  regexp.MustCompile(token + ` ` + quote(keywords.KillPhrase)),
		rxKillActor:   regexp.MustCompile(quote(keywords.KillPhrase) + ` ` + token),
		rxBuyActor:    regexp.MustCompile(token + ` ` + quote(keywords.Buy)),
		rxBuyItem:     regexp.MustCompile(` ` + quote(keywords.ItemMarker) + ` ` + token),
		rxCastActor:   regexp.MustCompile(token + ` ` + quote(keywords.CastPhrase)),
		rxCastLevel:   regexp.MustCompile(`\b` + quote(keywords.LevelMarker) + ` ([1-9])`),
		rxCastAbility: regexp.MustCompile(` ` + quote(keywords.AbilityMarker) + ` ` + token),
		rxHitActor:    regexp.MustCompile(token + ` ` + quote(keywords.Hit)),
		rxHitTarget:   regexp.MustCompile(` ` + quote(keywords.Hit) + ` ` + token),
		rxHitAbility:  regexp.MustCompile(` ` + quote(keywords.WithMarker) + ` ` + token),
		rxHitDamage:   regexp.MustCompile(` ` + quote(keywords.ForMarker) + ` (\d+)`),
	}
}

func (p *Parser) Keywords() Keywords {
	return p.keywords
}

func (p *Parser) Options() Options {
	return p.opts
}

// Split breaks a raw blob into candidate lines, keeping only non-blank records which mention at least
// one action keyword. Source order is preserved.
func (p *Parser) Split(raw string) []string {
	var lines []string

	for _, record := range strings.Split(raw, p.keywords.Delimiter) {
		for _, line := range strings.FieldsFunc(record, isLineBreak) {
			if strings.TrimSpace(line) == "" || !p.hasAction(line) {
				continue
			}

			lines = append(lines, line)
		}
	}

	return lines
}

func isLineBreak(r rune) bool {
	return r == '\r' || r == '\n'
}

func (p *Parser) hasAction(line string) bool {
	for _, action := range p.actions {
		if strings.Contains(line, action) {
			return true
		}
	}

	return false
}

// Normalize removes the hero and item namespace prefixes. Removing a prefix can join the surrounding text
// into a new prefix, so it repeats until none remain, which keeps Normalize idempotent.
func (p *Parser) Normalize(line string) string {
	for p.hasPrefix(line) {
		for _, prefix := range p.prefixes {
			line = strings.ReplaceAll(line, prefix, "")
		}
	}

	return line
}

func (p *Parser) hasPrefix(line string) bool {
	for _, prefix := range p.prefixes {
		if strings.Contains(line, prefix) {
			return true
		}
	}

	return false
}

// DecodeTimestamp folds the first four digit runs of the line into milliseconds, weighting them as
// hours, minutes, seconds and milliseconds in the order they are found. Lines with fewer runs only fill
// the leading weights. The decoder is positional; any digits appearing before the clock would be read as
// part of it.
func (p *Parser) DecodeTimestamp(line string) (int64, error) {
	var total int64

	for idx, field := range p.rxDigits.FindAllString(line, timestampFields) {
		value, errValue := strconv.ParseInt(field, 10, 64)
		if errValue != nil {
			return 0, errors.Join(errValue, ErrMalformedNumber)
		}

		weight := timestampWeights[idx]
		if value > (math.MaxInt64-total)/weight {
			return 0, ErrMalformedNumber
		}

		total += value * weight
	}

	return total, nil
}

// ParseLine normalizes and classifies a single candidate line. The returned Entry has no match assigned.
// ErrIgnored is returned for lines that are recognised but produce no event.
func (p *Parser) ParseLine(line string) (Entry, error) {
	line = p.Normalize(line)

	event, errEvent := p.classify(line)
	if errEvent != nil {
		return Entry{}, errEvent
	}

	timestamp, errTimestamp := p.DecodeTimestamp(line)
	if errTimestamp != nil {
		return Entry{}, errTimestamp
	}

	return Entry{Timestamp: timestamp, Event: event}, nil
}

// classify dispatches with the precedence kill > buy > cast > hit.
func (p *Parser) classify(line string) (Event, error) { //nolint:ireturn
	switch {
	case strings.Contains(line, p.keywords.Kill):
		return p.parseKill(line)
	case strings.Contains(line, p.keywords.Buy):
		return p.parseBuy(line), nil
	case strings.Contains(line, p.keywords.Cast):
		return p.parseCast(line), nil
	case strings.Contains(line, p.keywords.Hit):
		return p.parseHit(line)
	default:
		return nil, ErrIgnored
	}
}

func (p *Parser) parseKill(line string) (Event, error) { //nolint:ireturn
	if strings.Contains(line, p.keywords.NonHeroMarker) {
		return nil, ErrIgnored
	}

	return HeroKilledEvt{
		Actor:  capture(p.rxKillActor, line),
		Target: capture(p.rxKillTarget, line),
	}, nil
}

func (p *Parser) parseBuy(line string) ItemPurchasedEvt {
	return ItemPurchasedEvt{
		Actor: capture(p.rxBuyActor, line),
		Item:  capture(p.rxBuyItem, line),
	}
}

func (p *Parser) parseCast(line string) SpellCastEvt {
	evt := SpellCastEvt{
		Actor:   capture(p.rxCastActor, line),
		Ability: capture(p.rxCastAbility, line),
	}

	if level := capture(p.rxCastLevel, line); level != "" {
		// Single [1-9] digit, cannot fail.
		evt.Level, _ = strconv.Atoi(level)
	}

	return evt
}

func (p *Parser) parseHit(line string) (Event, error) { //nolint:ireturn
	evt := DamageDealtEvt{
		Actor:   capture(p.rxHitActor, line),
		Target:  capture(p.rxHitTarget, line),
		Ability: capture(p.rxHitAbility, line),
	}

	if damage := capture(p.rxHitDamage, line); damage != "" {
		value, errValue := strconv.ParseInt(damage, 10, 64)
		if errValue != nil {
			return nil, errors.Join(errValue, ErrMalformedNumber)
		}

		evt.Damage = value
	}

	return evt, nil
}

// capture returns the first submatch of the leftmost match, or an empty string.
func capture(rx *regexp.Regexp, line string) string {
	match := rx.FindStringSubmatch(line)
	if len(match) < 2 {
		return ""
	}

	return match[1]
}
