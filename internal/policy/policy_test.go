package policy

import (
	"testing"

	"petcare-backend/internal/ports/auth"
)

func TestCan(t *testing.T) {
	customer := Actor{UserID: "c-1", Role: auth.RoleCustomer}
	other := Actor{UserID: "c-2", Role: auth.RoleCustomer}
	staff := Actor{UserID: "s-1", Role: auth.RoleStaff}
	admin := Actor{UserID: "a-1", Role: auth.RoleAdmin}

	ownAppt := Owned(KindAppointment, "c-1")

	cases := []struct {
		name  string
		actor Actor
		act   Action
		res   Resource
		want  bool
	}{
		{"owner reads appointment", customer, ActionRead, ownAppt, true},
		{"owner cancels appointment", customer, ActionCancel, ownAppt, true},
		{"other customer reads appointment", other, ActionRead, ownAppt, false},
		{"other customer cancels appointment", other, ActionCancel, ownAppt, false},
		{"customer cannot update status", customer, ActionUpdateStatus, ownAppt, false},
		{"staff updates status", staff, ActionUpdateStatus, ownAppt, true},
		{"staff reads any order", staff, ActionRead, Owned(KindOrder, "c-1"), true},
		{"customer reads catalog", customer, ActionRead, Owned(KindProduct, ""), true},
		{"customer cannot manage catalog", customer, ActionManageCatalog, Collection(KindProduct), false},
		{"customer cannot create product", customer, ActionCreate, Collection(KindProduct), false},
		{"customer creates own pet", customer, ActionCreate, Owned(KindPet, "c-1"), true},
		{"customer cannot create for others", customer, ActionCreate, Owned(KindPet, "c-2"), false},
		{"staff creates for customer", staff, ActionCreate, Owned(KindPet, "c-1"), true},
		{"staff manages catalog", staff, ActionManageCatalog, Collection(KindProduct), true},
		{"staff moderates news", staff, ActionModerate, Owned(KindArticle, "c-1"), true},
		{"customer cannot moderate", customer, ActionModerate, Owned(KindArticle, "c-1"), false},
		{"staff cannot manage staff", staff, ActionManageStaff, Collection(KindUser), false},
		{"staff updates any appointment", staff, ActionUpdate, ownAppt, true},
		{"staff cancels any order", staff, ActionCancel, Owned(KindOrder, "c-1"), true},
		{"staff cannot pay a customer's order", staff, ActionUpdate, Owned(KindOrder, "c-1"), false},
		{"staff cannot delete orders", staff, ActionDelete, Owned(KindOrder, "c-1"), false},
		{"staff cannot delete users", staff, ActionDelete, Owned(KindUser, "c-1"), false},
		{"staff deletes any pet", staff, ActionDelete, Owned(KindPet, "c-1"), true},
		{"admin pays any order", admin, ActionUpdate, Owned(KindOrder, "c-1"), true},
		{"admin manages staff", admin, ActionManageStaff, Collection(KindUser), true},
		{"customer cannot list all", customer, ActionListAll, Collection(KindOrder), false},
		{"anonymous denied", Actor{Role: auth.RoleAdmin}, ActionRead, ownAppt, false},
		{"unknown role denied", Actor{UserID: "x", Role: "root"}, ActionRead, ownAppt, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.actor, tc.act, tc.res); got != tc.want {
				t.Fatalf("Can(%v, %s, %+v) = %v, want %v", tc.actor, tc.act, tc.res, got, tc.want)
			}
		})
	}
}
