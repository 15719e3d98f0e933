// Copyright (c) 2025 BVK Chaitanya

package steam

import "strconv"

type PersonaState int

const (
	PersonaOffline        PersonaState = 0
	PersonaOnline         PersonaState = 1
	PersonaBusy           PersonaState = 2
	PersonaAway           PersonaState = 3
	PersonaSnooze         PersonaState = 4
	PersonaLookingToTrade PersonaState = 5
	PersonaLookingToPlay  PersonaState = 6
	PersonaInvisible      PersonaState = 7
)

type FriendRelationship int

const (
	RelationshipNone             FriendRelationship = 0
	RelationshipBlocked          FriendRelationship = 1
	RelationshipRequestRecipient FriendRelationship = 2
	RelationshipFriend           FriendRelationship = 3
	RelationshipRequestInitiator FriendRelationship = 4
	RelationshipIgnored          FriendRelationship = 5
	RelationshipIgnoredFriend    FriendRelationship = 6
)

func (v FriendRelationship) String() string {
	switch v {
	case RelationshipNone:
		return "None"
	case RelationshipBlocked:
		return "Blocked"
	case RelationshipRequestRecipient:
		return "RequestRecipient"
	case RelationshipFriend:
		return "Friend"
	case RelationshipRequestInitiator:
		return "RequestInitiator"
	case RelationshipIgnored:
		return "Ignored"
	case RelationshipIgnoredFriend:
		return "IgnoredFriend"
	}
	return "FriendRelationship(" + strconv.Itoa(int(v)) + ")"
}

// EResult is the service's generic result code. Only the values reported on
// disconnects are named here.
type EResult int

const (
	ResultOK                   EResult = 1
	ResultFail                 EResult = 2
	ResultNoConnection         EResult = 3
	ResultLoggedInElsewhere    EResult = 6
	ResultServiceUnavailable   EResult = 20
	ResultLogonSessionReplaced EResult = 34
	ResultTryAnotherCM         EResult = 48
)

func (v EResult) String() string {
	switch v {
	case ResultOK:
		return "OK"
	case ResultFail:
		return "Fail"
	case ResultNoConnection:
		return "NoConnection"
	case ResultLoggedInElsewhere:
		return "LoggedInElsewhere"
	case ResultServiceUnavailable:
		return "ServiceUnavailable"
	case ResultLogonSessionReplaced:
		return "LogonSessionReplaced"
	case ResultTryAnotherCM:
		return "TryAnotherCM"
	}
	return "EResult(" + strconv.Itoa(int(v)) + ")"
}
