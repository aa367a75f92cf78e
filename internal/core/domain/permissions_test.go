package domain

import (
	"errors"
	"testing"
)

func TestRoleMatrix(t *testing.T) {
	tests := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleTechnician, ActionCreateDirectLoan, true},
		{RoleTechnician, ActionDecideBulkRequest, false},
		{RoleFaculty, ActionCreateReservation, true},
		{RoleFaculty, ActionCreateDirectLoan, false},
		{RoleFaculty, ActionConfirmPickup, false},
		{RoleFaculty, ActionViewAllLoans, false},
		{RoleSecretary, ActionConfirmPickup, true},
		{RoleSecretary, ActionCreateDirectLoan, false},
		{RoleSecretary, ActionCreateEquipment, false},
		{RoleSecretary, ActionDecideBulkRequest, false},
		{RoleCoordinator, ActionDecideBulkRequest, true},
		{RoleCoordinator, ActionGenerateReports, true},
		{RoleCoordinator, ActionCreateEquipment, false},
		{Role("visitor"), ActionCreateReservation, false},
	}
	for _, tt := range tests {
		if got := IsAllowed(tt.role, tt.action); got != tt.want {
			t.Errorf("IsAllowed(%s, %s) = %v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}

func TestAuthorize(t *testing.T) {
	if err := Authorize(RoleTechnician, ActionCreateEquipment); err != nil {
		t.Fatalf("allowed action returned %v", err)
	}

	err := Authorize(RoleFaculty, ActionCreateDirectLoan)
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("err = %v, want PermissionDeniedError", err)
	}
	if denied.Action != ActionCreateDirectLoan || denied.Role != RoleFaculty {
		t.Fatalf("denied = %+v, want action and role carried through", denied)
	}
}

func TestCanCancelClaim(t *testing.T) {
	owner := uint(7)
	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"owner cancels own", Actor{ID: 7, Role: RoleFaculty}, true},
		{"other faculty denied", Actor{ID: 8, Role: RoleFaculty}, false},
		{"secretary privileged", Actor{ID: 9, Role: RoleSecretary}, true},
		{"technician privileged", Actor{ID: 10, Role: RoleTechnician}, true},
		{"coordinator privileged", Actor{ID: 11, Role: RoleCoordinator}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCancelClaim(tt.actor, owner); got != tt.want {
				t.Errorf("CanCancelClaim(%+v, %d) = %v, want %v", tt.actor, owner, got, tt.want)
			}
		})
	}
}
