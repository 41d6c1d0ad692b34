package gate

import "strings"

// Wildcard matches any resource type or action in a Permission.
const Wildcard = "*"

// Permission is a "resource:action" grant, e.g. "document:create".
type Permission string

// PermissionAll is held by super admins.
const PermissionAll Permission = Wildcard + ":" + Wildcard

func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits p into its resource type and action. Malformed permissions
// yield empty strings.
func (p Permission) Parse() (string, Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok || res == "" || act == "" {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether holding p grants the requested permission.
// Either half of p may be the wildcard; the manage action covers every
// action on its resource.
func (p Permission) Matches(requested Permission) bool {
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	if res != Wildcard && res != reqRes {
		return false
	}
	return act == Wildcard || act == ActionManage || act == reqAct
}
