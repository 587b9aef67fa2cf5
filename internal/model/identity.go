package model

import "fmt"

// PrincipalKind discriminates the two principal tables.  The string values
// are the subject_type claim of access tokens.
type PrincipalKind string

const (
    KindUser  PrincipalKind = "user"
    KindCoach PrincipalKind = "coach"
)

// Valid reports whether k is one of the known kinds.
func (k PrincipalKind) Valid() bool { return k == KindUser || k == KindCoach }

// PrincipalRef points at one row of either the users or the coaches table.
// User and coach ids come from separate sequences, so two refs are the same
// principal only when both Kind and ID match.
type PrincipalRef struct {
    Kind PrincipalKind
    ID   uint64
}

func UserRef(id uint64) PrincipalRef  { return PrincipalRef{Kind: KindUser, ID: id} }
func CoachRef(id uint64) PrincipalRef { return PrincipalRef{Kind: KindCoach, ID: id} }

// Validate fails when the ref does not name exactly one principal.
func (r PrincipalRef) Validate() error {
    if !r.Kind.Valid() {
        return fmt.Errorf("unknown principal kind %q", r.Kind)
    }
    if r.ID == 0 {
        return fmt.Errorf("missing %s id", r.Kind)
    }
    return nil
}

func (r PrincipalRef) String() string { return fmt.Sprintf("%s:%d", r.Kind, r.ID) }

// Identity is an authenticated principal: either a User or a Coach, never
// both.  The zero value is not a valid identity; build one with
// UserIdentity or CoachIdentity.
type Identity struct {
    kind  PrincipalKind
    user  *User
    coach *Coach
}

func UserIdentity(u User) Identity   { return Identity{kind: KindUser, user: &u} }
func CoachIdentity(c Coach) Identity { return Identity{kind: KindCoach, coach: &c} }

func (i Identity) Kind() PrincipalKind { return i.kind }

// User returns the user variant.  ok is false for coaches.
func (i Identity) User() (User, bool) {
    if i.kind != KindUser || i.user == nil {
        return User{}, false
    }
    return *i.user, true
}

// Coach returns the coach variant.  ok is false for users.
func (i Identity) Coach() (Coach, bool) {
    if i.kind != KindCoach || i.coach == nil {
        return Coach{}, false
    }
    return *i.coach, true
}

func (i Identity) Ref() PrincipalRef {
    switch i.kind {
    case KindUser:
        return UserRef(i.user.ID)
    case KindCoach:
        return CoachRef(i.coach.ID)
    }
    return PrincipalRef{}
}

func (i Identity) ID() uint64 { return i.Ref().ID }

func (i Identity) Username() string {
    switch i.kind {
    case KindUser:
        return i.user.Username
    case KindCoach:
        return i.coach.Username
    }
    return ""
}

// Role is the capability role of the principal.  Coaches always report
// RoleCoach.
func (i Identity) Role() Role {
    switch i.kind {
    case KindUser:
        return i.user.Role
    case KindCoach:
        return RoleCoach
    }
    return ""
}

func (i Identity) IsActive() bool {
    switch i.kind {
    case KindUser:
        return i.user.IsActive
    case KindCoach:
        return i.coach.IsActive
    }
    return false
}

// Same reports whether the identity is the principal named by other.
func (i Identity) Same(other PrincipalRef) bool {
    return i.kind.Valid() && i.Ref() == other
}
