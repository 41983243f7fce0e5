package converter

import (
	"strings"

	"devforum/internal/entity/db"
	"devforum/internal/entity/dto"
)

// DefaultAvatarPath is served for accounts that never uploaded a picture.
const DefaultAvatarPath = "/static/profile_pics/" + db.DefaultImageFile

// AvatarURL resolves a stored image reference into a URL usable by clients.
func AvatarURL(imageFile string) string {
	imageFile = strings.TrimSpace(imageFile)
	if imageFile == "" || imageFile == db.DefaultImageFile {
		return DefaultAvatarPath
	}
	return imageFile
}

// UserToSummary converts a db.User to dto.UserSummary.
func UserToSummary(u *db.User) dto.UserSummary {
	if u == nil {
		return dto.UserSummary{}
	}
	summary := dto.UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Name:        u.Name,
		Country:     u.Country,
		AboutMe:     u.AboutMe,
		ImageURL:    AvatarURL(u.ImageFile),
		Confirmed:   u.Confirmed,
		MemberSince: u.CreatedAt,
		Permissions: []string{},
	}
	if u.Role != nil {
		summary.Role = u.Role.Name
		summary.Permissions = u.Role.Permissions.Names()
	}
	return summary
}

// UserToPublicSummary hides the email address.
func UserToPublicSummary(u *db.User) dto.UserSummary {
	summary := UserToSummary(u)
	summary.Email = ""
	return summary
}

// UsersToSummaries converts a slice of db.User to dto.UserSummary.
func UsersToSummaries(users []db.User) []dto.UserSummary {
	summaries := make([]dto.UserSummary, len(users))
	for i := range users {
		summaries[i] = UserToSummary(&users[i])
	}
	return summaries
}

// UserToAuthor converts a db.User to the public author view.
func UserToAuthor(u *db.User) dto.AuthorSummary {
	if u == nil {
		return dto.AuthorSummary{}
	}
	return dto.AuthorSummary{
		ID:       u.ID,
		Username: u.Username,
		ImageURL: AvatarURL(u.ImageFile),
	}
}

func RoleToSummary(r *db.Role) dto.RoleSummary {
	if r == nil {
		return dto.RoleSummary{}
	}
	return dto.RoleSummary{
		ID:          r.ID,
		Name:        r.Name,
		Default:     r.Default,
		Mask:        int(r.Permissions),
		Permissions: r.Permissions.Names(),
	}
}

func RolesToSummaries(roles []db.Role) []dto.RoleSummary {
	out := make([]dto.RoleSummary, len(roles))
	for i := range roles {
		out[i] = RoleToSummary(&roles[i])
	}
	return out
}
