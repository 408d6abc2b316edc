// Package access decides whether a user's granted permissions cover a
// route's required "resource:action" permission.
package access

import (
	"strings"

	"github.com/xelth-com/eckbiz/internal/models"
)

// Action is the verb half of a permission.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Permission has the form "resource:action", e.g. "quotes:read".
type Permission string

const (
	Wildcard              = "*"
	SuperAdmin Permission = "*:*"
)

// New joins a resource and an action into a permission.
func New(resource string, action Action) Permission {
	return Permission(resource + ":" + string(action))
}

// Parse splits a permission into resource and action.
func (p Permission) Parse() (resource string, action Action) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], Action(parts[1])
}

// Matches reports whether p grants requested. "*:*" grants everything and
// "quotes:*" grants every action on quotes.
func (p Permission) Matches(requested Permission) bool {
	if p == SuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == Wildcard
}

// Subject is what the guard knows about the caller.
type Subject struct {
	Role        string
	Permissions []string
}

// Allowed reports whether s may perform required. The admin role implies
// every permission.
func Allowed(s Subject, required Permission) bool {
	if bypass {
		return true
	}
	if s.Role == models.RoleAdmin {
		return true
	}
	for _, granted := range s.Permissions {
		if Permission(granted).Matches(required) {
			return true
		}
	}
	return false
}
