package domain

// User is a read-only view of the external user/group directory.
type User struct {
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}

// Group grants its members approval rights over a set of document types.
type Group struct {
	Name            string   `json:"name"`
	ApprovableTypes []string `json:"approvable_types"`
}
