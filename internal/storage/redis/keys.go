package redis

import (
	"fmt"

	"github.com/mcoot/golfclub/internal/model"
)

// Key prefix for all club data
const keyPrefix = "golfclub"

// memberKey returns the Redis key for a Member
func memberKey(id model.MemberID) string {
	return fmt.Sprintf("%s:member:%d", keyPrefix, id)
}

// tournamentKey returns the Redis key for a Tournament
func tournamentKey(id model.TournamentID) string {
	return fmt.Sprintf("%s:tournament:%d", keyPrefix, id)
}

// memberSeqKey returns the Redis key of the member ID counter
func memberSeqKey() string {
	return fmt.Sprintf("%s:seq:member", keyPrefix)
}

// tournamentSeqKey returns the Redis key of the tournament ID counter
func tournamentSeqKey() string {
	return fmt.Sprintf("%s:seq:tournament", keyPrefix)
}

// membersKey returns the Redis key for the SET of all member IDs
func membersKey() string {
	return fmt.Sprintf("%s:members", keyPrefix)
}

// tournamentsKey returns the Redis key for the SET of all tournament IDs
func tournamentsKey() string {
	return fmt.Sprintf("%s:tournaments", keyPrefix)
}

// emailIndexKey returns the Redis key for the email -> member_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// phoneIndexKey returns the Redis key for the phone -> member_id index
func phoneIndexKey(phone string) string {
	return fmt.Sprintf("%s:idx:phone:%s", keyPrefix, phone)
}

// tournamentRegistrationsKey returns the Redis key for the HASH of
// member_id -> registered_at for a tournament
func tournamentRegistrationsKey(id model.TournamentID) string {
	return fmt.Sprintf("%s:reg:tournament:%d", keyPrefix, id)
}

// memberRegistrationsKey returns the Redis key for the SET of tournament IDs
// a member is registered for
func memberRegistrationsKey(id model.MemberID) string {
	return fmt.Sprintf("%s:reg:member:%d", keyPrefix, id)
}
