package domain

// Action enumerates every permission-gated operation.
type Action string

const (
	ActionCreateEquipment       Action = "createEquipment"
	ActionEditEquipment         Action = "editEquipment"
	ActionDeleteEquipment       Action = "deleteEquipment"
	ActionToggleEquipmentActive Action = "toggleEquipmentActive"
	ActionCreateDirectLoan      Action = "createDirectLoan"
	ActionConfirmPickup         Action = "confirmPickup"
	ActionReturnEquipment       Action = "returnEquipment"
	ActionViewAllLoans          Action = "viewAllLoans"
	ActionCreateReservation     Action = "createReservation"
	ActionConfirmReservation    Action = "confirmReservation"
	ActionCancelReservation     Action = "cancelReservation"
	ActionCreateBulkRequest     Action = "createBulkRequest"
	ActionDecideBulkRequest     Action = "decideBulkRequest"
	ActionConfirmBulkPickup     Action = "confirmBulkPickup"
	ActionGenerateReports       Action = "generateReports"
	// ActionPrivilegedCancel allows cancelling claims owned by others.
	ActionPrivilegedCancel Action = "privilegedCancel"
)

// rolePermissions is the fixed role matrix. There is no runtime
// configuration: changing a permission is a code change.
var rolePermissions = map[Role]map[Action]bool{
	RoleTechnician: {
		ActionCreateEquipment:       true,
		ActionEditEquipment:         true,
		ActionDeleteEquipment:       true,
		ActionToggleEquipmentActive: true,
		ActionCreateDirectLoan:      true,
		ActionConfirmPickup:         true,
		ActionReturnEquipment:       true,
		ActionViewAllLoans:          true,
		ActionCreateReservation:     true,
		ActionConfirmReservation:    true,
		ActionCancelReservation:     true,
		ActionCreateBulkRequest:     true,
		ActionConfirmBulkPickup:     true,
		ActionGenerateReports:       true,
		ActionPrivilegedCancel:      true,
	},
	RoleFaculty: {
		ActionCreateReservation: true,
		ActionCancelReservation: true, // own reservations only, see CanCancelClaim
		ActionCreateBulkRequest: true,
	},
	RoleSecretary: {
		ActionConfirmPickup:      true,
		ActionReturnEquipment:    true,
		ActionViewAllLoans:       true,
		ActionCreateReservation:  true,
		ActionConfirmReservation: true,
		ActionCancelReservation:  true,
		ActionCreateBulkRequest:  true,
		ActionConfirmBulkPickup:  true,
		ActionPrivilegedCancel:   true,
	},
	RoleCoordinator: {
		ActionConfirmPickup:      true,
		ActionReturnEquipment:    true,
		ActionViewAllLoans:       true,
		ActionCreateReservation:  true,
		ActionConfirmReservation: true,
		ActionCancelReservation:  true,
		ActionCreateBulkRequest:  true,
		ActionDecideBulkRequest:  true,
		ActionConfirmBulkPickup:  true,
		ActionGenerateReports:    true,
		ActionPrivilegedCancel:   true,
	},
}

// IsAllowed reports whether role may perform action.
func IsAllowed(role Role, action Action) bool {
	return rolePermissions[role][action]
}

// Authorize returns a PermissionDeniedError when the role matrix denies
// the action. Denials are always surfaced, never silently ignored.
func Authorize(role Role, action Action) error {
	if !IsAllowed(role, action) {
		return &PermissionDeniedError{Action: action, Role: role}
	}
	return nil
}

// CanCancelClaim reports whether actor may cancel a claim owned by
// ownerID: owners may always cancel their own, everyone else needs the
// privileged-cancel permission.
func CanCancelClaim(actor Actor, ownerID uint) bool {
	if actor.ID == ownerID {
		return true
	}
	return IsAllowed(actor.Role, ActionPrivilegedCancel)
}
