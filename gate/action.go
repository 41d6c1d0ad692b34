package gate

// Action is what a subject wants to do with a resource.
type Action string

// List and create are checked without a resource.
const (
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionInvite Action = "invite"

	// ActionManage grants every action on its resource.
	ActionManage Action = "manage"
)
