package db

// Permission is a capability bit stored inside Role.Permissions.
// Values are persisted; never renumber an existing bit.
type Permission int

const (
	PermissionFollow           Permission = 0x01
	PermissionComment          Permission = 0x02
	PermissionWriteArticles    Permission = 0x04
	PermissionModerateComments Permission = 0x08
	PermissionAdministrator    Permission = 0x80
)

// PermissionAll is the Administrator mask. It covers every bit in 0x01-0x80,
// including ones not allocated yet.
const PermissionAll Permission = 0xff

var permissionNames = map[Permission]string{
	PermissionFollow:           "follow",
	PermissionComment:          "comment",
	PermissionWriteArticles:    "write_articles",
	PermissionModerateComments: "moderate_comments",
	PermissionAdministrator:    "administrator",
}

// Names lists the named bits contained in p, lowest bit first.
func (p Permission) Names() []string {
	names := make([]string, 0, len(permissionNames))
	for bit := Permission(1); bit <= PermissionAll; bit <<= 1 {
		if p&bit == 0 {
			continue
		}
		if name, ok := permissionNames[bit]; ok {
			names = append(names, name)
		}
	}
	return names
}
