package auth

// Permission is a bitmask of capabilities stored in the users.permissions
// column. Bits combine with bitwise OR; a zero value grants nothing.
type Permission int

// Permission bits.
const (
	// PermObserve allows reading printer state and terminal output.
	PermObserve Permission = 1 << iota

	// PermTerminal allows sending raw terminal commands to the device.
	PermTerminal

	// PermPrint allows starting and ending print jobs.
	PermPrint

	// PermConnection allows opening and closing the device connection.
	PermConnection

	// PermSettings allows reading and changing printer settings.
	PermSettings

	// PermUsers allows managing user accounts and their permissions.
	PermUsers
)

// PermAll grants every capability. Used for the seeded admin account.
const PermAll = PermObserve | PermTerminal | PermPrint | PermConnection | PermSettings | PermUsers

// Has returns true if p includes every bit of required.
func (p Permission) Has(required Permission) bool {
	return p&required == required
}

// permissionNames maps single bits to their API names.
var permissionNames = map[Permission]string{
	PermObserve:    "observe",
	PermTerminal:   "terminal",
	PermPrint:      "print",
	PermConnection: "connection",
	PermSettings:   "settings",
	PermUsers:      "users",
}

// Names returns the API names of all bits set in p, in bit order.
func (p Permission) Names() []string {
	var out []string
	for bit := PermObserve; bit <= PermUsers; bit <<= 1 {
		if p.Has(bit) {
			out = append(out, permissionNames[bit])
		}
	}
	return out
}
