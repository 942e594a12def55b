package models

// User is a registered account. Username is the unique key.
// Password is stored exactly as produced by the configured hasher.
type User struct {
	ID          string   `json:"id,omitempty"`
	Username    string   `json:"username" validate:"required,max=30"`
	Email       string   `json:"email,omitempty" validate:"omitempty,email"`
	Password    string   `json:"password,omitempty"`
	DisplayName string   `json:"displayName,omitempty" validate:"max=50"`
	Bio         string   `json:"bio,omitempty" validate:"max=150"`
	ProfilePic  string   `json:"profilePic,omitempty"` // opaque URI
	Friends     []string `json:"friends"`

	Extra Extra `json:"-"`
}

// MarshalJSON encodes u together with its Extra members
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return encodeRecord(plain(u), u.Extra)
}

// UnmarshalJSON decodes u, keeping undeclared members in Extra
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	extra, err := decodeRecord(data, (*plain)(u))
	if err != nil {
		return err
	}
	u.Extra = extra
	return nil
}

// UserPatch is a partial update; nil fields are left untouched
type UserPatch struct {
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Password    *string  `json:"password,omitempty"`
	DisplayName *string  `json:"displayName,omitempty" validate:"omitempty,max=50"`
	Bio         *string  `json:"bio,omitempty" validate:"omitempty,max=150"`
	ProfilePic  *string  `json:"profilePic,omitempty"`
	Friends     []string `json:"friends,omitempty"`
}

// UserCompact is the subset of a user shown next to content
type UserCompact struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	ProfilePic  string `json:"profilePic,omitempty"`
}

// Merge shallow-merges the non-zero fields and Extra members of over onto u.
// Username is never changed by a merge.
func (u User) Merge(over User) User {
	merged := u
	if over.ID != "" {
		merged.ID = over.ID
	}
	if over.Email != "" {
		merged.Email = over.Email
	}
	if over.Password != "" {
		merged.Password = over.Password
	}
	if over.DisplayName != "" {
		merged.DisplayName = over.DisplayName
	}
	if over.Bio != "" {
		merged.Bio = over.Bio
	}
	if over.ProfilePic != "" {
		merged.ProfilePic = over.ProfilePic
	}
	if over.Friends != nil {
		merged.Friends = append([]string(nil), over.Friends...)
	}
	merged.Extra = u.Extra.merged(over.Extra)
	return merged
}

// Apply returns u with every non-nil patch field applied
func (u User) Apply(p UserPatch) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.ProfilePic != nil {
		u.ProfilePic = *p.ProfilePic
	}
	if p.Friends != nil {
		u.Friends = append([]string(nil), p.Friends...)
	}
	return u
}

// HasFriend reports whether username is in u's friends list
func (u User) HasFriend(username string) bool {
	for _, f := range u.Friends {
		if f == username {
			return true
		}
	}
	return false
}

// ToCompact converts a User to UserCompact, falling back to the username for the display name
func (u User) ToCompact() UserCompact {
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	return UserCompact{
		Username:    u.Username,
		DisplayName: name,
		ProfilePic:  u.ProfilePic,
	}
}
