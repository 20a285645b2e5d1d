// Package policy centraliza las reglas de autorización.
//
// Todos los handlers preguntan Can(actor, action, resource) en vez de
// comparar roles a mano; si devuelve false el handler responde 403.
package policy

import "petcare-backend/internal/ports/auth"

type Action string

const (
	ActionRead          Action = "read"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionCancel        Action = "cancel"
	ActionUpdateStatus  Action = "update_status"
	ActionModerate      Action = "moderate"
	ActionManageCatalog Action = "manage_catalog"
	ActionManageStaff   Action = "manage_staff"
	ActionListAll       Action = "list_all"
)

type Kind string

const (
	KindUser        Kind = "user"
	KindPet         Kind = "pet"
	KindAppointment Kind = "appointment"
	KindProduct     Kind = "product"
	KindOrder       Kind = "order"
	KindArticle     Kind = "article"
)

type Actor struct {
	UserID string
	Role   auth.Role
}

func ActorFromClaims(c auth.Claims) Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}

// Resource describe el recurso sobre el que se actúa.
// OwnerID es el dueño (customer, autor); vacío para acciones de colección.
type Resource struct {
	Kind    Kind
	OwnerID string
}

func Collection(k Kind) Resource { return Resource{Kind: k} }

func Owned(k Kind, ownerID string) Resource { return Resource{Kind: k, OwnerID: ownerID} }

func Can(a Actor, act Action, res Resource) bool {
	if a.UserID == "" {
		return false
	}

	switch a.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleStaff:
		return staffCan(act, res)
	case auth.RoleCustomer:
		return customerCan(a, act, res)
	default:
		return false
	}
}

// staffCan: el staff opera sobre recursos de cualquier cliente pero nunca
// administra staff, no borra pedidos ni cuentas y no paga pedidos ajenos.
func staffCan(act Action, res Resource) bool {
	switch act {
	case ActionRead, ActionCreate, ActionUpdateStatus, ActionModerate, ActionManageCatalog, ActionListAll:
		return true
	case ActionUpdate:
		return res.Kind == KindAppointment || res.Kind == KindPet || res.Kind == KindArticle
	case ActionCancel:
		return res.Kind == KindAppointment || res.Kind == KindOrder
	case ActionDelete:
		return res.Kind == KindPet || res.Kind == KindArticle
	default:
		return false
	}
}

func customerCan(a Actor, act Action, res Resource) bool {
	switch act {
	case ActionUpdateStatus, ActionModerate, ActionManageCatalog, ActionManageStaff, ActionListAll:
		return false
	case ActionCreate:
		// productos sólo los crea el staff; a nombre de otro usuario tampoco
		if res.Kind == KindProduct {
			return false
		}
		return res.OwnerID == "" || res.OwnerID == a.UserID
	case ActionRead:
		// el catálogo es público
		if res.Kind == KindProduct {
			return true
		}
		return res.OwnerID == a.UserID
	case ActionUpdate, ActionDelete, ActionCancel:
		if res.Kind == KindProduct {
			return false
		}
		return res.OwnerID == a.UserID
	default:
		return false
	}
}
