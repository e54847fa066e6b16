// Package combatlog turns Dota 2 style combat logs into typed events and reduces them into per match
// statistics.
//
// A log is a blob of records delimited by "~" (or line breaks). Only records mentioning one of the four
// known actions (kills, purchases, casts and hits) are kept. Each kept record is stripped of the engine
// namespace prefixes, classified, and stamped with the millisecond offset decoded from its leading
// numeric fields.
package combatlog
