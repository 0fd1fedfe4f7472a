package model

// Identity はリクエストの主体を表す。
// 匿名も正当な値として扱い、nilで未認証を表現しない。
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

// Anonymous は匿名の主体を返す。
func Anonymous() Identity {
	return Identity{}
}

// IdentityOf はユーザーから認証済みの主体を生成する。
func IdentityOf(u *User) Identity {
	return Identity{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
	}
}

// IsAnonymous は匿名かどうかを返す。
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// IsAdmin は管理者かどうかを返す。
func (i Identity) IsAdmin() bool {
	return !i.IsAnonymous() && i.Role == RoleAdmin
}
