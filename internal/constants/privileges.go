package constants

// Privileges is the server-side user privilege bitfield.
type Privileges int32

const (
	PrivAnyone Privileges = 0

	// Privileges intended for all normal players.
	PrivUnrestricted Privileges = 1 << 0 // unbanned player
	PrivVerified     Privileges = 1 << 1 // has logged in to the server in-game

	// Trusted player, bypasses low-ceiling anticheat measures.
	PrivWhitelisted Privileges = 1 << 2

	// Donation tiers.
	PrivSupporter Privileges = 1 << 4
	PrivPremium   Privileges = 1 << 5

	// Notable users.
	PrivAlumni Privileges = 1 << 7

	// Staff permissions.
	PrivTourneyManager Privileges = 1 << 10 // able to manage match state without host
	PrivNominator      Privileges = 1 << 11 // able to manage map ranked status
	PrivModerator      Privileges = 1 << 12 // able to manage users (level 1)
	PrivAdministrator  Privileges = 1 << 13 // able to manage users (level 2)
	PrivDeveloper      Privileges = 1 << 14 // able to manage full server state

	PrivDonator = PrivSupporter | PrivPremium
	PrivStaff   = PrivModerator | PrivAdministrator | PrivDeveloper
)

// Has reports whether all bits in mask are set.
func (p Privileges) Has(mask Privileges) bool {
	return p&mask == mask
}

// HasAny reports whether any bit in mask is set.
func (p Privileges) HasAny(mask Privileges) bool {
	return p&mask != 0
}

// ClientPrivileges is the privilege bitfield as understood by the osu! client.
type ClientPrivileges int32

const (
	ClientPrivPlayer     ClientPrivileges = 1 << 0
	ClientPrivModerator  ClientPrivileges = 1 << 1
	ClientPrivSupporter  ClientPrivileges = 1 << 2
	ClientPrivOwner      ClientPrivileges = 1 << 3
	ClientPrivDeveloper  ClientPrivileges = 1 << 4
	ClientPrivTournament ClientPrivileges = 1 << 5 // not sent to the osu! client
)

// ClientPrivs maps server privileges to the client-side bitfield.
func ClientPrivs(p Privileges) ClientPrivileges {
	var bits ClientPrivileges
	if p.HasAny(PrivUnrestricted) {
		bits |= ClientPrivPlayer
	}
	if p.HasAny(PrivDonator) {
		bits |= ClientPrivSupporter
	}
	if p.HasAny(PrivModerator) {
		bits |= ClientPrivModerator
	}
	if p.HasAny(PrivAdministrator) {
		bits |= ClientPrivDeveloper
	}
	if p.HasAny(PrivDeveloper) {
		bits |= ClientPrivOwner
	}
	return bits
}
