package domain

import (
	"fmt"

	authdomain "github.com/ocastrobeltran/gestio-qa-backend/internal/auth/domain"
)

// Scope is the subset of projects a caller may see or mutate.
//
// Admins cover everything. Analysts cover projects they are assigned to
// or created. Stakeholder visibility was never pinned down by product, so
// the scope denies them rather than defaulting open.
type Scope struct {
	all    bool
	none   bool
	userID int64
}

func ScopeFor(userID int64, role string) Scope {
	switch role {
	case authdomain.RoleAdmin:
		return Scope{all: true}
	case authdomain.RoleAnalyst:
		return Scope{userID: userID}
	default:
		return Scope{none: true}
	}
}

func (s Scope) All() bool  { return s.all }
func (s Scope) None() bool { return s.none }

// Allows reports whether the project is inside the caller's scope.
func (s Scope) Allows(p *Project) bool {
	if s.all {
		return true
	}
	if s.none {
		return false
	}
	if p.QAAnalystID != nil && *p.QAAnalystID == s.userID {
		return true
	}
	return p.CreatedBy != nil && *p.CreatedBy == s.userID
}

// SQL renders the scope as a WHERE fragment over the aliased projects
// table. firstArg is the next free placeholder index.
func (s Scope) SQL(alias string, firstArg int) (string, []any) {
	if s.all {
		return "TRUE", nil
	}
	if s.none {
		return "FALSE", nil
	}
	clause := fmt.Sprintf("(%s.qa_analyst_id = $%d OR %s.created_by = $%d)", alias, firstArg, alias, firstArg)
	return clause, []any{s.userID}
}
